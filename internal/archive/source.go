package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

// headPollInterval is the sleep between archive polls once the adapter has
// caught up to the archive's head and no RPC source is configured to take
// over (spec §5).
const headPollInterval = 30 * time.Second

// Source adapts a Client into the datasource.DataSource contract. It only
// ever serves finalized data; it has no notion of a live, reorganizing tip.
type Source struct {
	client *Client
	log    log.Logger
}

// NewSource wraps an archive Client as a DataSource.
func NewSource(l log.Logger, client *Client) *Source {
	return &Source{client: client, log: l}
}

var _ datasource.DataSource = (*Source)(nil)

// GetFinalizedBlocks polls the archive height once per iteration and posts
// one batch query per poll, per spec §4.4's iteration rule.
func (s *Source) GetFinalizedBlocks(ctx context.Context, req chain.DataRequest, stopOnHead bool, yield datasource.BlockBatchFunc) error {
	query := BuildQuery(req)

	for {
		height, err := s.client.Height(ctx)
		if err != nil {
			return fmt.Errorf("archive: get height: %w", err)
		}
		if query.FromBlock > height {
			if stopOnHead {
				return nil
			}
			// No RPC source is configured to take over from here: keep
			// polling the archive for newly indexed blocks.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(headPollInterval):
			}
			continue
		}

		raw, err := s.client.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("archive: query from %d: %w", query.FromBlock, err)
		}
		if len(raw) == 0 {
			return nil
		}

		batch := make(datasource.BlockBatch, len(raw))
		for i, b := range raw {
			batch[i] = toBlock(b)
		}
		if err := yield(batch); err != nil {
			return err
		}

		lastBlockNum := raw[len(raw)-1].Header.Number
		if query.ToBlock != nil && lastBlockNum == *query.ToBlock {
			return nil
		}
		query.FromBlock = lastBlockNum + 1
	}
}

// GetFinalizedHeight returns the archive's indexed height.
func (s *Source) GetFinalizedHeight(ctx context.Context) (uint64, error) {
	return s.client.Height(ctx)
}

// GetBlockHash fetches the hash of the block at height by running a
// single-block, header-only query; the archive API has no dedicated
// block-by-hash-or-number lookup endpoint.
func (s *Source) GetBlockHash(ctx context.Context, height uint64) (string, error) {
	to := height
	query := BatchRequest{
		FromBlock: height,
		ToBlock:   &to,
		Fields: FieldSelection{
			Block: &BlockFieldSelection{Number: true, Hash: true},
		},
	}
	blocks, err := s.client.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("archive: get block hash at %d: %w", height, err)
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("archive: %w: no block at height %d", datasource.ErrConsistency, height)
	}
	return blocks[0].Header.Hash, nil
}
