// Package datasource defines the capability contract the orchestrator
// depends on, polymorphic over the archive, portal, and RPC adapters.
package datasource

import (
	"context"
	"errors"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

// ErrConsistency signals that an upstream returned empty for an identifier
// the caller has reason to believe exists (e.g. a block hash just reported
// as the chain tip). It is retryable; the fork navigator (internal/fork)
// retries it in the hot phase.
var ErrConsistency = errors.New("consistency error: upstream returned no data for a known identifier")

// BlockBatch is one non-empty, contiguously-numbered batch of blocks
// produced by a finalized range scan.
type BlockBatch = []chain.Block

// BlockBatchFunc is called once per batch a finalized range scan produces,
// in ascending block order. Returning a non-nil error stops the scan.
// This is the lazy-sequence shape spoken of in spec §4.3 the orchestrator
// and fetch paths drive directly, instead of materializing goroutine-backed
// channels for a call each component invokes only a handful of times.
type BlockBatchFunc func(batch BlockBatch) error

// HotUpdateFunc is called once per HotUpdate a hot-block scan produces.
type HotUpdateFunc func(update chain.HotUpdate) error

// DataSource is satisfied by both the archive/portal (finalized-only) and
// RPC (finalized + hot) adapters.
type DataSource interface {
	// GetFinalizedBlocks streams finalized block batches in ascending,
	// contiguous order starting at req.From. It returns once req.To is
	// covered, or once the source's head is reached and stopOnHead is
	// true; otherwise it keeps polling for new data.
	GetFinalizedBlocks(ctx context.Context, req chain.DataRequest, stopOnHead bool, yield BlockBatchFunc) error

	// GetFinalizedHeight returns the source's current finalized height.
	GetFinalizedHeight(ctx context.Context) (uint64, error)

	// GetBlockHash returns the hash of the finalized block at height.
	GetBlockHash(ctx context.Context, height uint64) (string, error)
}

// HotDataSource additionally tracks the live, possibly-reorganizing tip of
// the chain. Only the RPC adapter implements this.
type HotDataSource interface {
	DataSource

	// GetHotBlocks streams HotUpdates starting from the given chain
	// state, each either extending the chain (possibly after a fork) or
	// only advancing the finalized pointer.
	GetHotBlocks(ctx context.Context, req chain.DataRequest, state chain.HashAndHeight, yield HotUpdateFunc) error
}
