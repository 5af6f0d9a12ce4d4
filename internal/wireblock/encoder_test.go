package wireblock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/hexutil"
	"github.com/sqd-archives/firehose-bridge/internal/pb"
)

func strptr(s string) *string { return &s }

func TestEncodeCallTrace(t *testing.T) {
	block := chain.Block{
		Header: chain.BlockHeader{
			Number: 20_000_000, Hash: "0xaa", ParentHash: "0xbb",
			Size: 0, UnclesHash: "0x00", Miner: "0x00", StateRoot: "0x00",
			TransactionsRoot: "0x00", ReceiptsRoot: "0x00", LogsBloom: "0x00",
			Difficulty: "0x1", TotalDifficulty: "0x2", GasLimit: "0x1c9c380",
			GasUsed: "0x5208", Timestamp: 1_700_000_000, ExtraData: "0x",
			MixHash: "0x00", Nonce: "0x0",
		},
		Transactions: []chain.Transaction{
			{
				TransactionIndex: 0, Hash: "0x8400bdadaf54699b14c802daaef902155be80cb2e4406f20107a5f86b042de04",
				Nonce: 1, From: "0xfeed", To: strptr("0xbeef"), Input: "0x", Value: "0x0",
				Gas: "0x5208", GasPrice: "0x1", V: "0x1b", R: "0x1", S: "0x1",
				GasUsed: "0x5208", CumulativeGasUsed: "0x5208", EffectiveGasPrice: "0x1",
				Type: 2, Status: 1,
			},
		},
		Traces: []chain.Trace{
			{
				TransactionIndex: 0,
				Type:             chain.TraceCall,
				Action: &chain.TraceAction{
					From: strptr("0xfeed"),
					To:   strptr("0xb8901acb165ed027e32754e0ffe830802919727f"),
					Gas:  strptr("0x1000"),
					Type: func() *chain.CallType { c := chain.CallTypeCall; return &c }(),
				},
				Result: &chain.TraceResult{GasUsed: strptr("0x100")},
			},
		},
	}

	wire, err := Encode(block)
	require.NoError(t, err)
	require.Equal(t, uint32(2), wire.Ver)
	require.Len(t, wire.TransactionTraces, 1)

	tt := wire.TransactionTraces[0]
	require.Equal(t, pb.StatusSucceeded, tt.Status)
	require.Len(t, tt.Calls, 1)
	require.Equal(t, pb.CallTypeCall, tt.Calls[0].CallType)
	wantAddr, err := hexutil.DecodeHex("address", "0xb8901acb165ed027e32754e0ffe830802919727f")
	require.NoError(t, err)
	require.Equal(t, wantAddr, tt.Calls[0].Address)
	require.False(t, tt.Calls[0].StatusFailed)
	require.NotNil(t, tt.Receipt)
}

func TestEncodeTransactionStatusFromFailedCall(t *testing.T) {
	revert := "execution reverted"
	block := chain.Block{
		Header: chain.BlockHeader{Hash: "0xaa", ParentHash: "0xbb", Difficulty: "0x0", TotalDifficulty: "0x0", GasLimit: "0x0", GasUsed: "0x0", ExtraData: "0x", UnclesHash: "0x00", Miner: "0x00", StateRoot: "0x00", TransactionsRoot: "0x00", ReceiptsRoot: "0x00", LogsBloom: "0x00", MixHash: "0x00", Nonce: "0x0"},
		Transactions: []chain.Transaction{
			{TransactionIndex: 0, Hash: "0x1", From: "0xfeed", Input: "0x", Value: "0x0", Gas: "0x0", GasPrice: "0x0", V: "0x0", R: "0x0", S: "0x0", GasUsed: "0x0", CumulativeGasUsed: "0x0"},
		},
		Traces: []chain.Trace{
			{
				TransactionIndex: 0,
				Type:             chain.TraceCall,
				RevertReason:     &revert,
				Action: &chain.TraceAction{
					From: strptr("0xfeed"),
					To:   strptr("0xbeef"),
				},
			},
		},
	}

	wire, err := Encode(block)
	require.NoError(t, err)
	require.Equal(t, pb.StatusReverted, wire.TransactionTraces[0].Status)
	require.True(t, wire.TransactionTraces[0].Calls[0].StatusFailed)
	require.True(t, wire.TransactionTraces[0].Calls[0].StatusReverted)
	require.Equal(t, revert, wire.TransactionTraces[0].Calls[0].FailureReason)
}

func TestEncodeSkipsSuicideAndRewardTraces(t *testing.T) {
	block := chain.Block{
		Header: chain.BlockHeader{Hash: "0xaa", ParentHash: "0xbb", Difficulty: "0x0", TotalDifficulty: "0x0", GasLimit: "0x0", GasUsed: "0x0", ExtraData: "0x", UnclesHash: "0x00", Miner: "0x00", StateRoot: "0x00", TransactionsRoot: "0x00", ReceiptsRoot: "0x00", LogsBloom: "0x00", MixHash: "0x00", Nonce: "0x0"},
		Transactions: []chain.Transaction{
			{TransactionIndex: 0, Hash: "0x1", From: "0xfeed", Input: "0x", Value: "0x0", Gas: "0x0", GasPrice: "0x0", V: "0x0", R: "0x0", S: "0x0", GasUsed: "0x0", CumulativeGasUsed: "0x0"},
		},
		Traces: []chain.Trace{
			{TransactionIndex: 0, Type: chain.TraceSuicide, Action: &chain.TraceAction{From: strptr("0xfeed"), To: strptr("0xbeef")}},
			{TransactionIndex: 0, Type: chain.TraceReward},
		},
	}

	wire, err := Encode(block)
	require.NoError(t, err)
	require.Empty(t, wire.TransactionTraces[0].Calls)
	require.Equal(t, pb.StatusUnknown, wire.TransactionTraces[0].Status)
}
