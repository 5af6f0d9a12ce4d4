// Package fork implements the chain suffix state machine that detects
// reorganizations against a live RPC source and emits apply/undo deltas.
package fork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

// ErrEmptyChain is an InternalInvariant violation: the navigator's chain
// suffix must never become empty.
var ErrEmptyChain = errors.New("fork navigator: chain suffix is empty")

// maxConsistencyRetries and consistencyBackoffUnit implement spec §4.3/§7's
// hot-phase retry policy: up to 10 retries at 200ms * attempt backoff,
// retrying only datasource.ErrConsistency.
const (
	maxConsistencyRetries  = 10
	consistencyBackoffUnit = 200 * time.Millisecond
)

// BlockGetter resolves a block by number or by hash. The RPC adapter
// supplies this via eth_getBlockByNumber / eth_getBlockByHash.
type BlockGetter interface {
	GetBlockByNumber(ctx context.Context, number uint64) (chain.Block, error)
	GetBlockByHash(ctx context.Context, hash string) (chain.Block, error)
}

// Navigator maintains a non-empty chain suffix [anchor, ..., best] and
// computes the apply/undo delta implied by a new (best, finalized) pair
// reported by the upstream. The suffix is a value the Navigator owns;
// callers only ever see immutable HotUpdate snapshots.
type Navigator struct {
	get     BlockGetter
	chain   []chain.HashAndHeight // ascending by height, chain[0] is the finalized anchor
	onRetry func()                // called once per consistency-error retry, nil-safe
}

// New seeds a Navigator with the given finalized anchor as its sole
// element.
func New(get BlockGetter, anchor chain.HashAndHeight) *Navigator {
	return &Navigator{get: get, chain: []chain.HashAndHeight{anchor}}
}

// OnRetry installs a callback invoked once per consistency-error retry, so
// callers can surface it as a metric (component 12's
// firehose_consistency_retries_total).
func (n *Navigator) OnRetry(f func()) {
	n.onRetry = f
}

func (n *Navigator) getBlockByNumber(ctx context.Context, number uint64) (chain.Block, error) {
	return n.withRetry(ctx, func() (chain.Block, error) {
		return n.get.GetBlockByNumber(ctx, number)
	})
}

func (n *Navigator) getBlockByHash(ctx context.Context, hash string) (chain.Block, error) {
	return n.withRetry(ctx, func() (chain.Block, error) {
		return n.get.GetBlockByHash(ctx, hash)
	})
}

func (n *Navigator) withRetry(ctx context.Context, fn func() (chain.Block, error)) (chain.Block, error) {
	var lastErr error
	for attempt := 0; attempt <= maxConsistencyRetries; attempt++ {
		b, err := fn()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, datasource.ErrConsistency) {
			return chain.Block{}, err
		}
		lastErr = err
		if attempt == maxConsistencyRetries {
			break
		}
		if n.onRetry != nil {
			n.onRetry()
		}
		select {
		case <-time.After(time.Duration(attempt+1) * consistencyBackoffUnit):
		case <-ctx.Done():
			return chain.Block{}, ctx.Err()
		}
	}
	return chain.Block{}, lastErr
}

func (n *Navigator) tip() chain.HashAndHeight {
	return n.chain[len(n.chain)-1]
}

// Move advances the navigator to the given best/finalized heights,
// resolving any fork along the way, and returns the resulting HotUpdate.
func (n *Navigator) Move(ctx context.Context, bestNum, finalizedNum uint64) (chain.HotUpdate, error) {
	if len(n.chain) == 0 {
		return chain.HotUpdate{}, ErrEmptyChain
	}

	var newBlocks []chain.Block

	// Step 1: extend by number if the reported best is ahead of our tip.
	var candidate chain.HashAndHeight
	extending := bestNum > n.tip().Height
	if extending {
		b, err := n.getBlockByNumber(ctx, bestNum)
		if err != nil {
			return chain.HotUpdate{}, fmt.Errorf("fetch block %d: %w", bestNum, err)
		}
		candidate = chain.HashAndHeight{Hash: b.Header.ParentHash, Height: b.Header.Number - 1}
		newBlocks = append(newBlocks, b)
	}

	// Step 2: walk backwards by parent hash until our tip height is caught
	// up to the candidate's height.
	for extending && n.tip().Height < candidate.Height {
		b, err := n.getBlockByHash(ctx, candidate.Hash)
		if err != nil {
			return chain.HotUpdate{}, fmt.Errorf("fetch block %s: %w", candidate.Hash, err)
		}
		newBlocks = append(newBlocks, b)
		candidate = chain.HashAndHeight{Hash: b.Header.ParentHash, Height: b.Header.Number - 1}
	}

	// Step 3: fork resolution. While our tip doesn't match the candidate,
	// unwind our tip and walk the candidate's parent chain back too.
	for extending && n.tip().Hash != candidate.Hash {
		b, err := n.getBlockByHash(ctx, candidate.Hash)
		if err != nil {
			return chain.HotUpdate{}, fmt.Errorf("fetch block %s: %w", candidate.Hash, err)
		}
		newBlocks = append(newBlocks, b)
		candidate = chain.HashAndHeight{Hash: b.Header.ParentHash, Height: b.Header.Number - 1}

		if len(n.chain) == 0 {
			return chain.HotUpdate{}, ErrEmptyChain
		}
		n.chain = n.chain[:len(n.chain)-1]
		if len(n.chain) == 0 {
			return chain.HotUpdate{}, ErrEmptyChain
		}
	}

	// Step 4: newBlocks were accumulated newest-first; reverse to ascending
	// order and append their identities to the chain.
	for i, j := 0, len(newBlocks)-1; i < j; i, j = i+1, j-1 {
		newBlocks[i], newBlocks[j] = newBlocks[j], newBlocks[i]
	}
	for _, b := range newBlocks {
		n.chain = append(n.chain, b.AsHashAndHeight())
	}

	// Step 5: finalization prune.
	if finalizedNum > n.chain[0].Height {
		idx := -1
		for i, h := range n.chain {
			if h.Height == finalizedNum {
				idx = i
				break
			}
		}
		if idx > 0 {
			n.chain = n.chain[idx:]
		}
	}

	// Step 6: base_head.
	var baseHead chain.HashAndHeight
	if len(newBlocks) == 0 {
		baseHead = n.tip()
	} else {
		first := newBlocks[0]
		baseHead = chain.HashAndHeight{Hash: first.Header.ParentHash, Height: first.Header.Number - 1}
	}

	return chain.HotUpdate{
		Blocks:        newBlocks,
		BaseHead:      baseHead,
		FinalizedHead: n.chain[0],
	}, nil
}
