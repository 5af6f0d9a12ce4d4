package rpcsource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSplitRange reproduces scenario S6: split(1000, 1250) produces
// [(1000,1099), (1100,1199), (1200,1250)].
func TestSplitRange(t *testing.T) {
	got := split(1000, 1250)
	require.Equal(t, []blockRange{
		{From: 1000, To: 1099},
		{From: 1100, To: 1199},
		{From: 1200, To: 1250},
	}, got)
}

func TestSplitExactMultiple(t *testing.T) {
	got := split(0, 199)
	require.Equal(t, []blockRange{
		{From: 0, To: 99},
		{From: 100, To: 199},
	}, got)
}

func TestSplitSingleBlock(t *testing.T) {
	got := split(42, 42)
	require.Equal(t, []blockRange{{From: 42, To: 42}}, got)
}

func TestSplitEmptyWhenFromAfterTo(t *testing.T) {
	require.Nil(t, split(5, 4))
}
