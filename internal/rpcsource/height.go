package rpcsource

import (
	"context"
	"fmt"
	"time"

	"github.com/sqd-archives/firehose-bridge/internal/hexutil"
)

// heightCacheTTL bounds how long a cached eth_blockNumber answer is served
// before the tracker issues a fresh upstream call.
const heightCacheTTL = time.Second

type heightRequest struct {
	reply chan heightReply
}

type heightReply struct {
	height uint64
	err    error
}

// HeightTracker is a single serializing goroutine that caches the chain's
// head height: at most one eth_blockNumber call is ever outstanding, and
// every caller observes a monotonically non-decreasing sequence of values,
// per spec §4.5.
type HeightTracker struct {
	client *Client
	inbox  chan heightRequest
}

// NewHeightTracker starts the tracker's serializer goroutine, which runs
// for the lifetime of ctx.
func NewHeightTracker(ctx context.Context, client *Client) *HeightTracker {
	t := &HeightTracker{client: client, inbox: make(chan heightRequest)}
	go t.run(ctx)
	return t
}

func (t *HeightTracker) run(ctx context.Context) {
	var cached uint64
	var cachedAt time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-t.inbox:
			if !cachedAt.IsZero() && time.Since(cachedAt) < heightCacheTTL {
				req.reply <- heightReply{height: cached}
				continue
			}

			raw, err := t.client.blockNumber(ctx)
			if err != nil {
				req.reply <- heightReply{err: fmt.Errorf("height tracker: %w", err)}
				continue
			}
			fresh, err := hexutil.QtyToUint64(raw)
			if err != nil {
				req.reply <- heightReply{err: fmt.Errorf("height tracker: %w", err)}
				continue
			}

			if fresh > cached {
				cached = fresh
			}
			cachedAt = time.Now()
			req.reply <- heightReply{height: cached}
		}
	}
}

// Height returns the current cached (or freshly fetched) head height.
func (t *HeightTracker) Height(ctx context.Context) (uint64, error) {
	reply := make(chan heightReply, 1)
	select {
	case t.inbox <- heightRequest{reply: reply}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.height, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
