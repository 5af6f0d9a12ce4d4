package orchestrator

import (
	"context"
	"fmt"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/cursor"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

// BlockRef identifies the block a Firehose.Block request wants, mirroring
// SingleBlockRequest's oneof: a bare number, a hash pinned to a number, or
// a cursor. Number wins when both a number and a hash are given.
type BlockRef struct {
	Number        *uint64
	HashAndNumber *uint64
	Cursor        string
}

// FetchBlock implements component 10 (spec §4.9): resolve ref to a block
// number, then pull a one-block finalized range from the archive/portal
// source.
func (o *Orchestrator) FetchBlock(ctx context.Context, ref BlockRef) (chain.Block, error) {
	number, err := resolveBlockRef(ref)
	if err != nil {
		return chain.Block{}, err
	}

	var found chain.Block
	ok := false
	req := chain.DataRequest{From: number, To: &number}
	err = o.finalized.GetFinalizedBlocks(ctx, req, true, func(batch datasource.BlockBatch) error {
		if len(batch) > 0 && !ok {
			found = batch[0]
			ok = true
		}
		return nil
	})
	if err != nil {
		return chain.Block{}, fmt.Errorf("orchestrator: fetch block %d: %w", number, err)
	}
	if !ok {
		return chain.Block{}, fmt.Errorf("orchestrator: block %d not found", number)
	}
	return found, nil
}

func resolveBlockRef(ref BlockRef) (uint64, error) {
	if ref.Number != nil {
		return *ref.Number, nil
	}
	if ref.HashAndNumber != nil {
		return *ref.HashAndNumber, nil
	}
	if ref.Cursor != "" {
		c, err := cursor.Parse(ref.Cursor)
		if err != nil {
			return 0, err
		}
		return c.Block.Height, nil
	}
	return 0, fmt.Errorf("orchestrator: single block request carries no number, hash, or cursor")
}
