package rpcsource

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

func TestFlattenCallTreeAssignsTraceAddress(t *testing.T) {
	root := callFrame{
		Type: "CALL",
		From: "0xfrom",
		Calls: []callFrame{
			{Type: "CALL", From: "0xfrom"},
			{Type: "CREATE", From: "0xfrom", Calls: []callFrame{
				{Type: "STATICCALL", From: "0xcreated"},
			}},
		},
	}

	traces, err := flattenCallTree(3, root)
	require.NoError(t, err)
	require.Len(t, traces, 4)

	require.Equal(t, []int{}, traces[0].TraceAddress)
	require.Equal(t, []int{0}, traces[1].TraceAddress)
	require.Equal(t, chain.TraceCreate, traces[2].Type)
	require.Equal(t, []int{1}, traces[2].TraceAddress)
	require.Equal(t, []int{1, 0}, traces[3].TraceAddress)
	require.Equal(t, chain.CallTypeStaticcall, *traces[3].Action.Type)

	for _, tr := range traces {
		require.EqualValues(t, 3, tr.TransactionIndex)
	}
}

func TestFlattenCallTreeRejectsUnknownOpcode(t *testing.T) {
	_, err := flattenCallTree(0, callFrame{Type: "PANIC"})
	require.Error(t, err)
}

func TestFlattenCallTreeSuicide(t *testing.T) {
	traces, err := flattenCallTree(0, callFrame{Type: "SELFDESTRUCT", From: "0xa"})
	require.NoError(t, err)
	require.Equal(t, chain.TraceSuicide, traces[0].Type)
	require.Nil(t, traces[0].Result)
}
