// Package orchestrator implements components 9 and 10: the dual-source
// Firehose.Blocks engine that stitches a historical archive/portal range
// onto a live RPC hot stream, and the one-shot Firehose.Block resolver.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/cursor"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

// Step tags an emitted Event the way spec §6.1's ForkStep does, at the
// canonical (pre wire-encoding) level.
type Step int

const (
	StepNew Step = iota
	StepUndo
)

// Event is one emission of the Blocks stream: a block (new or, for undo,
// a synthetic stub carrying only number and parent hash) plus the cursor
// a client should present to resume after it.
type Event struct {
	Step   Step
	Block  chain.Block
	Cursor cursor.Cursor
}

// EventFunc is called once per Event, in stream order. A non-nil error
// stops the stream.
type EventFunc func(Event) error

// Request is the orchestrator's input: the client's start/stop bounds and
// cursor, plus the already-compiled canonical filter (its From/To are
// ignored; the orchestrator computes those itself).
type Request struct {
	StartBlockNum int64
	Cursor        string
	StopBlockNum  uint64
	Filter        chain.DataRequest
}

// Orchestrator drives Request→Response per spec §4.8–§4.9. It depends
// only on the DataSource/HotDataSource contracts, so it's agnostic to
// whether Finalized is backed by the archive or portal adapter, and Hot
// may be nil when no --rpc source is configured (archive-only mode).
type Orchestrator struct {
	finalized datasource.DataSource
	hot       datasource.HotDataSource
	log       log.Logger
}

// New builds an Orchestrator. hot may be nil.
func New(l log.Logger, finalized datasource.DataSource, hot datasource.HotDataSource) *Orchestrator {
	return &Orchestrator{finalized: finalized, hot: hot, log: l}
}

// errStopBoundReached unwinds a DataSource/HotDataSource yield loop once
// the client's requested range is fully covered, without treating the
// early exit as a stream failure.
var errStopBoundReached = errors.New("orchestrator: stop bound reached")

// Blocks drives the full archive→RPC-finalized→RPC-hot pipeline described
// in spec §4.8, calling yield once per emitted event in stream order.
func (o *Orchestrator) Blocks(ctx context.Context, req Request, yield EventFunc) error {
	from, err := o.resolveStart(ctx, req)
	if err != nil {
		return err
	}

	dataReq := req.Filter
	dataReq.From = from
	if req.StopBlockNum != 0 {
		to := req.StopBlockNum
		dataReq.To = &to
	}

	var lastEmitted *chain.HashAndHeight

	emitFinalized := func(batch datasource.BlockBatch) error {
		for _, b := range batch {
			hh := b.AsHashAndHeight()
			c := cursor.New(hh, hh)
			if err := yield(Event{Step: StepNew, Block: b, Cursor: c}); err != nil {
				return err
			}
			dataReq.From = b.Header.Number + 1
			lastEmitted = &hh
			if dataReq.To != nil && b.Header.Number >= *dataReq.To {
				return errStopBoundReached
			}
		}
		return nil
	}

	// Phase 1: archive/portal finalized range. stopOnHead lets an RPC
	// source take over once this source catches up to its own head.
	if err := o.finalized.GetFinalizedBlocks(ctx, dataReq, o.hot != nil, emitFinalized); err != nil && !errors.Is(err, errStopBoundReached) {
		return fmt.Errorf("orchestrator: archive phase: %w", err)
	} else if errors.Is(err, errStopBoundReached) {
		return nil
	}

	if o.hot == nil {
		return nil
	}

	// Phase 2: RPC finalized catch-up, covering the gap (if any) between
	// where the archive left off and the RPC source's finalized head.
	rpcFinalized, err := o.hot.GetFinalizedHeight(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: rpc finalized height: %w", err)
	}
	if dataReq.To == nil || dataReq.From <= *dataReq.To {
		if dataReq.From <= rpcFinalized {
			catchUp := dataReq
			to := rpcFinalized
			if dataReq.To != nil && *dataReq.To < to {
				to = *dataReq.To
			}
			catchUp.To = &to
			if err := o.hot.GetFinalizedBlocks(ctx, catchUp, true, emitFinalized); err != nil && !errors.Is(err, errStopBoundReached) {
				return fmt.Errorf("orchestrator: rpc finalized catch-up: %w", err)
			} else if errors.Is(err, errStopBoundReached) {
				return nil
			}
		}
	}

	if dataReq.To != nil && dataReq.From > *dataReq.To {
		return nil
	}

	seed, err := o.seedHotState(ctx, dataReq.From, lastEmitted)
	if err != nil {
		return fmt.Errorf("orchestrator: seed hot state: %w", err)
	}

	lastHeadSeen := seed
	return o.runHotPhase(ctx, dataReq, seed, lastHeadSeen, yield)
}

// seedHotState resolves the {hash, height} the hot phase's fork navigator
// should start from: the last block this call emitted, or (if nothing was
// emitted yet, e.g. resuming close to the tip) the block just below
// dataReq.From, whose hash is looked up by height.
func (o *Orchestrator) seedHotState(ctx context.Context, from uint64, lastEmitted *chain.HashAndHeight) (chain.HashAndHeight, error) {
	if lastEmitted != nil {
		return *lastEmitted, nil
	}
	height := uint64(0)
	if from > 0 {
		height = from - 1
	}
	hash, err := o.hot.GetBlockHash(ctx, height)
	if err != nil {
		return chain.HashAndHeight{}, err
	}
	return chain.HashAndHeight{Height: height, Hash: hash}, nil
}

func (o *Orchestrator) runHotPhase(ctx context.Context, dataReq chain.DataRequest, seed, lastHeadSeen chain.HashAndHeight, yield EventFunc) error {
	err := o.hot.GetHotBlocks(ctx, dataReq, seed, func(update chain.HotUpdate) error {
		if update.BaseHead != lastHeadSeen {
			undo := chain.Block{Header: chain.BlockHeader{Number: lastHeadSeen.Height, ParentHash: update.BaseHead.Hash}}
			c := cursor.New(update.BaseHead, update.FinalizedHead)
			if err := yield(Event{Step: StepUndo, Block: undo, Cursor: c}); err != nil {
				return err
			}
		}

		for _, b := range update.Blocks {
			hh := b.AsHashAndHeight()
			c := cursor.New(hh, update.FinalizedHead)
			if err := yield(Event{Step: StepNew, Block: b, Cursor: c}); err != nil {
				return err
			}
			lastHeadSeen = hh
		}
		if len(update.Blocks) == 0 {
			lastHeadSeen = update.BaseHead
		}

		if dataReq.To != nil && update.FinalizedHead.Height >= *dataReq.To {
			return errStopBoundReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopBoundReached) {
		return fmt.Errorf("orchestrator: hot phase: %w", err)
	}
	return nil
}

// resolveStart implements spec §4.8's start resolution rule.
func (o *Orchestrator) resolveStart(ctx context.Context, req Request) (uint64, error) {
	if req.Cursor != "" {
		c, err := cursor.Parse(req.Cursor)
		if err != nil {
			return 0, err
		}
		return c.Block.Height + 1, nil
	}
	if req.StartBlockNum < 0 {
		source := o.finalized
		if o.hot != nil {
			source = o.hot
		}
		head, err := source.GetFinalizedHeight(ctx)
		if err != nil {
			return 0, fmt.Errorf("orchestrator: resolve negative start: %w", err)
		}
		result := int64(head) + req.StartBlockNum
		if result < 0 {
			return 0, nil
		}
		return uint64(result), nil
	}
	return uint64(req.StartBlockNum), nil
}
