package rpcsource

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
	"github.com/sqd-archives/firehose-bridge/internal/fork"
	"github.com/sqd-archives/firehose-bridge/internal/hexutil"
)

// hotPollInterval is the pause GetHotBlocks takes after every navigator
// move before re-checking the tip.
const hotPollInterval = 2 * time.Second

// Source adapts an RPC Client into both datasource.DataSource and
// datasource.HotDataSource: it serves finalized ranges via the stride
// fetch and a live tip via the fork navigator.
type Source struct {
	client               *Client
	height               *HeightTracker
	finalityConfirmation uint64
	log                  log.Logger
	onConsistencyRetry   func()
}

// NewSource builds an RPC-backed Source. ctx bounds the height tracker's
// background goroutine lifetime.
func NewSource(ctx context.Context, l log.Logger, client *Client, finalityConfirmation uint64) *Source {
	return &Source{
		client:               client,
		height:               NewHeightTracker(ctx, client),
		finalityConfirmation: finalityConfirmation,
		log:                  l,
	}
}

// OnConsistencyRetry installs a callback invoked once per consistency-error
// retry the hot-phase fork navigator performs, so the caller can surface it
// as component 12's firehose_consistency_retries_total metric.
func (s *Source) OnConsistencyRetry(f func()) {
	s.onConsistencyRetry = f
}

var (
	_ datasource.DataSource    = (*Source)(nil)
	_ datasource.HotDataSource = (*Source)(nil)
)

// GetFinalizedHeight returns max(0, height - finality_confirmation).
func (s *Source) GetFinalizedHeight(ctx context.Context) (uint64, error) {
	height, err := s.height.Height(ctx)
	if err != nil {
		return 0, err
	}
	if height < s.finalityConfirmation {
		return 0, nil
	}
	return height - s.finalityConfirmation, nil
}

// GetBlockHash fetches the hash of the finalized block at height.
func (s *Source) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	b, err := s.client.getBlockByNumber(ctx, hexNumber(height))
	if err != nil {
		return "", fmt.Errorf("rpcsource: get block hash at %d: %w", height, err)
	}
	if b == nil {
		return "", fmt.Errorf("%w: no block at height %d", datasource.ErrConsistency, height)
	}
	return b.Hash, nil
}

// GetFinalizedBlocks splits [req.From, to] into chunkSize-wide ranges and
// fetches groups of parallelism ranges concurrently, yielding each group's
// concatenated, in-order blocks as one batch. to is the current finalized
// height, capped by req.To. The call returns once that range is drained,
// whatever stopOnHead says; it does not poll for newly finalized blocks.
func (s *Source) GetFinalizedBlocks(ctx context.Context, req chain.DataRequest, stopOnHead bool, yield datasource.BlockBatchFunc) error {
	finalized, err := s.GetFinalizedHeight(ctx)
	if err != nil {
		return err
	}

	to := finalized
	if req.To != nil && *req.To < finalized {
		to = *req.To
	}
	if req.From > to {
		return nil
	}

	ranges := split(req.From, to)
	for start := 0; start < len(ranges); start += parallelism {
		end := start + parallelism
		if end > len(ranges) {
			end = len(ranges)
		}
		group := ranges[start:end]

		results := make([][]chain.Block, len(group))
		g, gctx := errgroup.WithContext(ctx)
		for i, r := range group {
			i, r := i, r
			g.Go(func() error {
				blocks, err := getStride(gctx, s.client, r, req)
				if err != nil {
					return err
				}
				results[i] = blocks
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("rpcsource: stride fetch: %w", err)
		}

		var batch datasource.BlockBatch
		for _, blocks := range results {
			batch = append(batch, blocks...)
		}
		if len(batch) > 0 {
			if err := yield(batch); err != nil {
				return err
			}
		}
	}
	return nil
}

// blockGetter adapts Source into fork.BlockGetter by fetching a single
// full canonical block (with req's filters applied) per lookup.
type blockGetter struct {
	client *Client
	req    chain.DataRequest
}

func (g *blockGetter) GetBlockByNumber(ctx context.Context, number uint64) (chain.Block, error) {
	blocks, err := getStride(ctx, g.client, blockRange{From: number, To: number}, g.req)
	if err != nil {
		return chain.Block{}, err
	}
	if len(blocks) == 0 {
		return chain.Block{}, fmt.Errorf("%w: no block at height %d", datasource.ErrConsistency, number)
	}
	return blocks[0], nil
}

func (g *blockGetter) GetBlockByHash(ctx context.Context, hash string) (chain.Block, error) {
	b, err := g.client.getBlockByHash(ctx, hash)
	if err != nil {
		return chain.Block{}, fmt.Errorf("rpcsource: get block %s: %w", hash, err)
	}
	if b == nil {
		return chain.Block{}, fmt.Errorf("%w: no block for hash %s", datasource.ErrConsistency, hash)
	}
	number, err := hexutil.QtyToUint64(b.Number)
	if err != nil {
		return chain.Block{}, err
	}
	return g.GetBlockByNumber(ctx, number)
}

// GetHotBlocks drives the fork navigator from state, polling the height
// tracker for (best, finalized) pairs and yielding one HotUpdate per move.
func (s *Source) GetHotBlocks(ctx context.Context, req chain.DataRequest, state chain.HashAndHeight, yield datasource.HotUpdateFunc) error {
	nav := fork.New(&blockGetter{client: s.client, req: req}, state)
	if s.onConsistencyRetry != nil {
		nav.OnRetry(s.onConsistencyRetry)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		best, err := s.height.Height(ctx)
		if err != nil {
			return fmt.Errorf("rpcsource: hot blocks height: %w", err)
		}
		finalized, err := s.GetFinalizedHeight(ctx)
		if err != nil {
			return err
		}

		update, err := nav.Move(ctx, best, finalized)
		if err != nil {
			return fmt.Errorf("rpcsource: fork navigator move: %w", err)
		}
		if err := yield(update); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(hotPollInterval):
		}
	}
}
