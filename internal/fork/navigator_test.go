package fork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

// fakeGetter serves canned blocks by number and by hash, as a real RPC
// adapter's eth_getBlockByNumber/eth_getBlockByHash would.
type fakeGetter struct {
	byNumber map[uint64]chain.Block
	byHash   map[string]chain.Block
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{byNumber: map[uint64]chain.Block{}, byHash: map[string]chain.Block{}}
}

func (f *fakeGetter) add(b chain.Block) {
	f.byNumber[b.Header.Number] = b
	f.byHash[b.Header.Hash] = b
}

func (f *fakeGetter) GetBlockByNumber(_ context.Context, number uint64) (chain.Block, error) {
	b, ok := f.byNumber[number]
	if !ok {
		return chain.Block{}, ErrEmptyChain
	}
	return b, nil
}

func (f *fakeGetter) GetBlockByHash(_ context.Context, hash string) (chain.Block, error) {
	b, ok := f.byHash[hash]
	if !ok {
		return chain.Block{}, ErrEmptyChain
	}
	return b, nil
}

func block(number uint64, hash, parent string) chain.Block {
	return chain.Block{Header: chain.BlockHeader{Number: number, Hash: hash, ParentHash: parent}}
}

// TestReorganization reproduces scenario S5 from the spec: a navigator
// seeded at {100, "A"} observes B1@101 atop A, then after an external
// reorg the upstream reports B2@101 atop A and C@102 atop B2.
func TestReorganization(t *testing.T) {
	g := newFakeGetter()
	g.add(block(100, "A", ""))
	g.add(block(101, "B1", "A"))
	// B2 is reachable by hash only; by number, 101 still serves B1.
	g.byHash["B2"] = block(101, "B2", "A")
	g.add(block(102, "C", "B2"))

	n := New(g, chain.HashAndHeight{Hash: "A", Height: 100})

	u1, err := n.Move(context.Background(), 101, 100)
	require.NoError(t, err)
	require.Equal(t, chain.HashAndHeight{Hash: "A", Height: 100}, u1.BaseHead)
	require.Len(t, u1.Blocks, 1)
	require.Equal(t, "B1", u1.Blocks[0].Header.Hash)

	// Now the external source reorgs: block 102 has parent B2, not B1.
	g.byNumber[102] = block(102, "C", "B2")

	u2, err := n.Move(context.Background(), 102, 100)
	require.NoError(t, err)
	require.Equal(t, chain.HashAndHeight{Hash: "A", Height: 100}, u2.BaseHead, "reorg must rebase atop the common ancestor")
	require.Len(t, u2.Blocks, 2)
	require.Equal(t, "B2", u2.Blocks[0].Header.Hash)
	require.Equal(t, "C", u2.Blocks[1].Header.Hash)
}

func TestFinalizationPrune(t *testing.T) {
	g := newFakeGetter()
	g.add(block(100, "A", ""))
	g.add(block(101, "B", "A"))
	g.add(block(102, "C", "B"))

	n := New(g, chain.HashAndHeight{Hash: "A", Height: 100})
	_, err := n.Move(context.Background(), 101, 100)
	require.NoError(t, err)

	u, err := n.Move(context.Background(), 102, 101)
	require.NoError(t, err)
	require.Equal(t, chain.HashAndHeight{Hash: "B", Height: 101}, u.FinalizedHead)
	require.Equal(t, chain.HashAndHeight{Hash: "B", Height: 101}, n.chain[0])
}

func TestNoExtensionNoUpdate(t *testing.T) {
	g := newFakeGetter()
	g.add(block(100, "A", ""))

	n := New(g, chain.HashAndHeight{Hash: "A", Height: 100})
	u, err := n.Move(context.Background(), 100, 100)
	require.NoError(t, err)
	require.Empty(t, u.Blocks)
	require.Equal(t, chain.HashAndHeight{Hash: "A", Height: 100}, u.BaseHead)
}
