package rpcsource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

func chainDataRequestWithLogFilter() chain.DataRequest {
	return chain.DataRequest{
		From: 100,
		Logs: []chain.LogRequest{{Addresses: []string{"0xcontract"}}},
	}
}

type jsonrpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      json.RawMessage   `json:"id"`
}

func jsonrpcResponse(id json.RawMessage, result any) []byte {
	raw, _ := json.Marshal(result)
	resp := struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
	}{JSONRPC: "2.0", ID: id, Result: raw}
	out, _ := json.Marshal(resp)
	return out
}

func newStrideTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	block := rpcBlock{
		Number:     "0x64",
		Hash:       "0xblockhash",
		ParentHash: "0xparent",
		Timestamp:  "0x1",
		Size:       "0x1",
		Transactions: []rpcTransaction{
			{
				TransactionIndex: "0x0",
				Hash:             "0xtxhash",
				Nonce:            "0x1",
				From:             "0xsender",
				Input:            "0x",
				Value:            "0x0",
				Gas:              "0x5208",
				GasPrice:         "0x1",
				V:                "0x1",
				R:                "0x1",
				S:                "0x1",
			},
		},
	}

	log := rpcLog{
		Address:          "0xcontract",
		Data:             "0x",
		Topics:           []string{"0xevent"},
		LogIndex:         "0x0",
		TransactionIndex: "0x0",
		TransactionHash:  "0xtxhash",
		BlockNumber:      "0x64",
	}

	receipt := rpcReceipt{
		TransactionHash:   "0xtxhash",
		TransactionIndex:  "0x0",
		GasUsed:           "0x5208",
		CumulativeGasUsed: "0x5208",
		EffectiveGasPrice: "0x1",
		Status:            "0x1",
		Type:              "0x0",
	}

	traceResult := "0x"
	trace := rpcTrace{
		TransactionHash: "0xtxhash",
		BlockNumber:     "100",
		Type:            "call",
		Action: &rpcTraceAction{
			From: strPtr("0xsender"),
			To:   strPtr("0xcontract"),
		},
		Result:       &rpcTraceResult{Output: &traceResult},
		TraceAddress: []int{},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result any
		switch req.Method {
		case "eth_getBlockByNumber":
			result = block
		case "eth_getLogs":
			result = []rpcLog{log}
		case "eth_getTransactionReceipt":
			result = receipt
		case "trace_transaction":
			result = []rpcTrace{trace}
		default:
			t.Fatalf("unexpected method %q", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jsonrpcResponse(req.ID, result))
	}))
}

func strPtr(s string) *string { return &s }

func TestGetStrideAssemblesBlockWithLogsAndTraces(t *testing.T) {
	srv := newStrideTestServer(t)
	defer srv.Close()

	client, err := Dial(context.Background(), log.Root(), srv.URL)
	require.NoError(t, err)

	blocks, err := getStride(context.Background(), client, blockRange{From: 100, To: 100}, chainDataRequestWithLogFilter())
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	require.EqualValues(t, 100, b.Header.Number)
	require.Len(t, b.Logs, 1)
	require.Equal(t, "0xcontract", b.Logs[0].Address)
	require.Len(t, b.Transactions, 1)
	require.Equal(t, "0xtxhash", b.Transactions[0].Hash)
	require.Len(t, b.Traces, 1)
	require.Equal(t, []int{}, b.Traces[0].TraceAddress)
}
