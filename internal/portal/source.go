package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sqd-archives/firehose-bridge/internal/archive"
	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

// headPollInterval mirrors internal/archive's post-head backoff: once the
// portal's stream is drained and no RPC source is configured to take over,
// the adapter sleeps before asking again.
const headPollInterval = 30 * time.Second

// Source adapts a portal Client into the datasource.DataSource contract.
type Source struct {
	client *Client
	log    log.Logger
}

// NewSource wraps a portal Client as a DataSource.
func NewSource(l log.Logger, client *Client) *Source {
	return &Source{client: client, log: l}
}

var _ datasource.DataSource = (*Source)(nil)

// GetFinalizedBlocks drains the portal's ndjson stream one block at a
// time, yielding each as a single-element batch, then restarts the stream
// from where it left off until req.To is satisfied or, with stopOnHead
// false, sleeps and resumes once the stream runs dry at the portal's head.
func (s *Source) GetFinalizedBlocks(ctx context.Context, req chain.DataRequest, stopOnHead bool, yield datasource.BlockBatchFunc) error {
	query := BuildQuery(req)

	for {
		done := false

		err := s.client.Stream(ctx, query, func(b archive.Block) error {
			block := archive.ToBlock(b)
			query.FromBlock = block.Header.Number + 1

			if query.ToBlock != nil && block.Header.Number == *query.ToBlock {
				done = true
			}
			if err := yield(datasource.BlockBatch{block}); err != nil {
				return err
			}
			if done {
				return errStreamDone
			}
			return nil
		})
		if err != nil && err != errStreamDone {
			return fmt.Errorf("portal: stream from %d: %w", query.FromBlock, err)
		}
		if done {
			return nil
		}

		// The stream drained without reaching the requested end: the
		// portal has caught up to its own head for now.
		if stopOnHead {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(headPollInterval):
		}
	}
}

// errStreamDone unwinds Stream's yield loop once the requested range is
// fully covered, without treating the early exit as a failure.
var errStreamDone = fmt.Errorf("portal: requested range satisfied")

// GetFinalizedHeight returns the portal's indexed height.
func (s *Source) GetFinalizedHeight(ctx context.Context) (uint64, error) {
	return s.client.Height(ctx)
}

// GetBlockHash fetches the hash of the block at height via a single-block
// stream; the portal API has no dedicated block-by-hash-or-number lookup.
func (s *Source) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	to := height
	query := Query{FromBlock: height, ToBlock: &to}

	var hash string
	err := s.client.Stream(ctx, query, func(b archive.Block) error {
		hash = b.Header.Hash
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("portal: get block hash at %d: %w", height, err)
	}
	if hash == "" {
		return "", fmt.Errorf("portal: %w: no block at height %d", datasource.ErrConsistency, height)
	}
	return hash, nil
}
