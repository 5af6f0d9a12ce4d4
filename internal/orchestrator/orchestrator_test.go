package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/cursor"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

var errStop = errors.New("test: stop")

// fakeFinalized serves a fixed, contiguous run of blocks as a single batch
// per call, honoring stopOnHead by returning without polling further.
type fakeFinalized struct {
	blocks []chain.Block
	head   uint64
}

func (f *fakeFinalized) GetFinalizedBlocks(_ context.Context, req chain.DataRequest, _ bool, yield datasource.BlockBatchFunc) error {
	var batch datasource.BlockBatch
	for _, b := range f.blocks {
		if b.Header.Number < req.From {
			continue
		}
		if req.To != nil && b.Header.Number > *req.To {
			continue
		}
		batch = append(batch, b)
	}
	if len(batch) == 0 {
		return nil
	}
	return yield(batch)
}

func (f *fakeFinalized) GetFinalizedHeight(context.Context) (uint64, error) { return f.head, nil }

func (f *fakeFinalized) GetBlockHash(_ context.Context, height uint64) (string, error) {
	for _, b := range f.blocks {
		if b.Header.Number == height {
			return b.Header.Hash, nil
		}
	}
	return "", nil
}

var _ datasource.DataSource = (*fakeFinalized)(nil)

// fakeHot replays its fixed sequence of HotUpdates, all within a single
// GetHotBlocks call.
type fakeHot struct {
	fakeFinalized
	updates []chain.HotUpdate
}

func (f *fakeHot) GetHotBlocks(_ context.Context, _ chain.DataRequest, _ chain.HashAndHeight, yield datasource.HotUpdateFunc) error {
	for _, u := range f.updates {
		if err := yield(u); err != nil {
			return err
		}
	}
	return nil
}

var _ datasource.HotDataSource = (*fakeHot)(nil)

func mkBlock(number uint64, hash, parent string) chain.Block {
	return chain.Block{Header: chain.BlockHeader{Number: number, Hash: hash, ParentHash: parent}}
}

// TestBlocksArchiveOnly covers the archive-only path (no --rpc): every
// finalized block is emitted as StepNew and the call returns once the
// stop bound is reached.
func TestBlocksArchiveOnly(t *testing.T) {
	finalized := &fakeFinalized{
		blocks: []chain.Block{mkBlock(1, "a", "g"), mkBlock(2, "b", "a"), mkBlock(3, "c", "b")},
		head:   3,
	}
	o := New(log.Root(), finalized, nil)

	var got []Event
	err := o.Blocks(context.Background(), Request{StartBlockNum: 1, StopBlockNum: 3}, func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, ev := range got {
		require.Equal(t, StepNew, ev.Step)
		require.Equal(t, uint64(i+1), ev.Block.Header.Number)
	}
}

// TestBlocksResumeFromCursor covers scenario S3: a client resumes with a
// cursor pointing at block 2, so the orchestrator must start at block 3.
func TestBlocksResumeFromCursor(t *testing.T) {
	finalized := &fakeFinalized{
		blocks: []chain.Block{mkBlock(1, "a", "g"), mkBlock(2, "b", "a"), mkBlock(3, "c", "b")},
		head:   3,
	}
	o := New(log.Root(), finalized, nil)

	c := cursor.New(chain.HashAndHeight{Height: 2, Hash: "b"}, chain.HashAndHeight{Height: 2, Hash: "b"})

	var got []Event
	err := o.Blocks(context.Background(), Request{Cursor: c.String(), StopBlockNum: 3}, func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint64(3), got[0].Block.Header.Number)
}

// TestBlocksHotUndoBeforeApply covers the reorg ordering rule: a
// StepUndo event immediately precedes the StepNew events that succeed it.
func TestBlocksHotUndoBeforeApply(t *testing.T) {
	finalized := &fakeFinalized{blocks: []chain.Block{mkBlock(1, "a", "g")}, head: 1}
	hot := &fakeHot{
		fakeFinalized: fakeFinalized{blocks: []chain.Block{mkBlock(1, "a", "g")}, head: 1},
		updates: []chain.HotUpdate{
			{
				Blocks:        []chain.Block{mkBlock(2, "b1", "a")},
				BaseHead:      chain.HashAndHeight{Height: 1, Hash: "a"},
				FinalizedHead: chain.HashAndHeight{Height: 1, Hash: "a"},
			},
			{
				// Reorg: base_head rebases to "a" again (common ancestor),
				// replacing b1 with b2+c.
				Blocks:        []chain.Block{mkBlock(2, "b2", "a"), mkBlock(3, "c", "b2")},
				BaseHead:      chain.HashAndHeight{Height: 1, Hash: "a"},
				FinalizedHead: chain.HashAndHeight{Height: 3, Hash: "c"},
			},
		},
	}
	o := New(log.Root(), finalized, hot)

	// Start right after the archive's head so only hot-phase events are
	// emitted; the hot phase is seeded from block 1's hash.
	var got []Event
	err := o.Blocks(context.Background(), Request{StartBlockNum: 2}, func(ev Event) error {
		got = append(got, ev)
		if len(got) == 4 {
			return errStop
		}
		return nil
	})
	require.ErrorIs(t, err, errStop)
	require.Len(t, got, 4)
	require.Equal(t, StepNew, got[0].Step) // b1 applied
	require.Equal(t, StepUndo, got[1].Step) // b1 undone (base_head back to "a")
	require.Equal(t, StepNew, got[2].Step) // b2 applied
	require.Equal(t, StepNew, got[3].Step) // c applied
}

func TestBlocksNoReorgNoUndo(t *testing.T) {
	finalized := &fakeFinalized{blocks: []chain.Block{mkBlock(1, "a", "g")}, head: 1}
	hot := &fakeHot{
		fakeFinalized: fakeFinalized{blocks: []chain.Block{mkBlock(1, "a", "g")}, head: 1},
		updates: []chain.HotUpdate{
			{BaseHead: chain.HashAndHeight{Height: 1, Hash: "a"}, FinalizedHead: chain.HashAndHeight{Height: 1, Hash: "a"}},
		},
	}
	o := New(log.Root(), finalized, hot)

	// Start right after the archive's head so any event would come from the
	// hot phase.
	var got []Event
	err := o.Blocks(context.Background(), Request{StartBlockNum: 2}, func(ev Event) error {
		got = append(got, ev)
		return errStop
	})
	require.NoError(t, err)
	require.Empty(t, got, "an empty update (base_head == last_head) must not synthesize an undo")
}
