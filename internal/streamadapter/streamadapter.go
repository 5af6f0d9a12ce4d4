// Package streamadapter implements component 11: bridging the
// orchestrator's lazy block-event sequence to a server-streaming gRPC
// call, with backpressure and cancellation per spec §4.10.
package streamadapter

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sqd-archives/firehose-bridge/internal/metrics"
	"github.com/sqd-archives/firehose-bridge/internal/orchestrator"
)

// item is one value flowing through the adapter's channel: either an
// event to send, or a terminal error (exactly one of the two is set).
type item struct {
	event orchestrator.Event
	err   error
}

// Run drives orchestrator.Blocks in a detached producer goroutine that
// feeds a capacity-1 channel, and forwards each item to send in stream
// order until the source is exhausted, send returns an error (the
// consumer cancelled), or ctx is done. It increments m.RequestsTotal once
// on entry and m.ActiveRequests for its duration.
func Run(ctx context.Context, l log.Logger, m *metrics.Metrics, o *orchestrator.Orchestrator, req orchestrator.Request, send func(orchestrator.Event) error) error {
	m.RequestsTotal.Inc()
	m.ActiveRequests.Inc()
	defer m.ActiveRequests.Dec()

	// producerCtx is cancelled on every exit path below, so a send failure
	// (the consumer cancelled) unblocks the producer's next channel send or
	// yield immediately instead of leaking the goroutine.
	producerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Capacity 1: the producer can have at most one event in flight ahead
	// of the consumer, so a slow client throttles upstream fetching
	// instead of the adapter buffering unboundedly.
	items := make(chan item, 1)

	go produce(producerCtx, o, req, items)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case it, ok := <-items:
			if !ok {
				return nil
			}
			if it.err != nil {
				l.Error("firehose stream: source error", "err", it.err)
				return it.err
			}
			if err := send(it.event); err != nil {
				return fmt.Errorf("streamadapter: send: %w", err)
			}
		}
	}
}

func produce(ctx context.Context, o *orchestrator.Orchestrator, req orchestrator.Request, items chan<- item) {
	defer close(items)

	err := o.Blocks(ctx, req, func(ev orchestrator.Event) error {
		select {
		case items <- item{event: ev}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil && ctx.Err() == nil {
		select {
		case items <- item{err: err}:
		case <-ctx.Done():
		}
	}
}
