package streamadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
	"github.com/sqd-archives/firehose-bridge/internal/metrics"
	"github.com/sqd-archives/firehose-bridge/internal/orchestrator"
)

type fakeSource struct {
	blocks []chain.Block
}

func (f *fakeSource) GetFinalizedBlocks(_ context.Context, req chain.DataRequest, _ bool, yield datasource.BlockBatchFunc) error {
	var batch datasource.BlockBatch
	for _, b := range f.blocks {
		if b.Header.Number >= req.From {
			batch = append(batch, b)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return yield(batch)
}

func (f *fakeSource) GetFinalizedHeight(context.Context) (uint64, error) {
	return f.blocks[len(f.blocks)-1].Header.Number, nil
}

func (f *fakeSource) GetBlockHash(context.Context, uint64) (string, error) { return "", nil }

var _ datasource.DataSource = (*fakeSource)(nil)

func mkBlock(number uint64, hash string) chain.Block {
	return chain.Block{Header: chain.BlockHeader{Number: number, Hash: hash}}
}

// TestRunForwardsEventsInOrder drives a small archive-only orchestrator
// through the adapter and checks every event reaches the sender, in
// order, and that Run returns cleanly once the stop bound is reached.
func TestRunForwardsEventsInOrder(t *testing.T) {
	src := &fakeSource{blocks: []chain.Block{mkBlock(1, "a"), mkBlock(2, "b")}}
	o := orchestrator.New(log.Root(), src, nil)
	m := metrics.New()

	var got []orchestrator.Event
	err := Run(context.Background(), log.Root(), m, o, orchestrator.Request{StartBlockNum: 1, StopBlockNum: 2}, func(ev orchestrator.Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint64(1), got[0].Block.Header.Number)
	require.Equal(t, uint64(2), got[1].Block.Header.Number)
}

// TestRunStopsOnSendError covers the "consumer cancelled" path: once send
// returns an error, Run stops forwarding further events.
func TestRunStopsOnSendError(t *testing.T) {
	src := &fakeSource{blocks: []chain.Block{mkBlock(1, "a"), mkBlock(2, "b"), mkBlock(3, "c")}}
	o := orchestrator.New(log.Root(), src, nil)
	m := metrics.New()

	sendErr := errors.New("consumer gone")
	var got int
	err := Run(context.Background(), log.Root(), m, o, orchestrator.Request{StartBlockNum: 1, StopBlockNum: 3}, func(orchestrator.Event) error {
		got++
		return sendErr
	})
	require.Error(t, err)
	require.Equal(t, 1, got)
}
