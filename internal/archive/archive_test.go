package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

func TestBuildQueryNoFilters(t *testing.T) {
	q := BuildQuery(chain.DataRequest{From: 10})
	require.Nil(t, q.Fields.Log)
	require.Nil(t, q.Fields.Transaction)
	require.Nil(t, q.Fields.Trace)
	require.True(t, q.Fields.Block.Hash)
}

func TestBuildQueryLogFilter(t *testing.T) {
	q := BuildQuery(chain.DataRequest{
		From: 10,
		Logs: []chain.LogRequest{{Addresses: []string{"0xabc"}, Topic0: []string{"0xdef"}}},
	})
	require.NotNil(t, q.Fields.Log)
	require.NotNil(t, q.Fields.Transaction)
	require.NotNil(t, q.Fields.Trace)
	require.Len(t, q.Logs, 1)
	require.True(t, q.Logs[0].Transaction)
	require.True(t, q.Logs[0].TransactionTraces)
}

func TestBuildQueryCallFilter(t *testing.T) {
	q := BuildQuery(chain.DataRequest{
		From:  10,
		Calls: []chain.TxRequest{{Addresses: []string{"0xabc"}, Sighash: []string{"0x12345678"}}},
	})
	require.Nil(t, q.Fields.Log)
	require.NotNil(t, q.Fields.Transaction)
	require.NotNil(t, q.Fields.Trace)
	require.Len(t, q.Transactions, 1)
	require.True(t, q.Transactions[0].Traces)
}

func TestTimestampFloorsFloats(t *testing.T) {
	var ts timestamp
	require.NoError(t, json.Unmarshal([]byte("1690000000.75"), &ts))
	require.EqualValues(t, 1690000000, ts)

	require.NoError(t, json.Unmarshal([]byte("1690000001"), &ts))
	require.EqualValues(t, 1690000001, ts)
}

func TestToBlockConvertsTraces(t *testing.T) {
	callType := "call"
	gas := "0x5208"
	raw := Block{
		Header: BlockHeader{Number: 5, Hash: "0xh", ParentHash: "0xp", Timestamp: 100},
		Traces: []Trace{
			{
				TransactionIndex: 0,
				Type:             "call",
				Action:           &TraceAction{Gas: &gas, Type: &callType},
				Result:           &TraceResult{GasUsed: &gas},
			},
		},
	}
	b := toBlock(raw)
	require.Len(t, b.Traces, 1)
	require.Equal(t, chain.TraceCall, b.Traces[0].Type)
	require.NotNil(t, b.Traces[0].Action.Type)
	require.Equal(t, chain.CallTypeCall, *b.Traces[0].Action.Type)
	require.Nil(t, b.Traces[0].TraceAddress)
}

// TestSourceIteratesUntilHead exercises the full GetFinalizedBlocks loop
// against a fake archive server that serves two pages before reaching the
// configured head, matching the worker-discovery and batch-query protocol.
func TestSourceIteratesUntilHead(t *testing.T) {
	page1 := []Block{{Header: BlockHeader{Number: 10, Hash: "0xa", Timestamp: 1}}}
	page2 := []Block{{Header: BlockHeader{Number: 11, Hash: "0xb", Timestamp: 2}}}

	calls := 0
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/height", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("11"))
	})
	mux.HandleFunc("/10/worker", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(srv.URL + "/10"))
	})
	mux.HandleFunc("/11/worker", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(srv.URL + "/11"))
	})
	mux.HandleFunc("/10", func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(page1)
	})
	mux.HandleFunc("/11", func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(page2)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(log.New(), srv.URL)
	src := NewSource(log.New(), c)

	var got datasource.BlockBatch
	err := src.GetFinalizedBlocks(context.Background(), chain.DataRequest{From: 10}, true, func(batch datasource.BlockBatch) error {
		got = append(got, batch...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint64(10), got[0].Header.Number)
	require.Equal(t, uint64(11), got[1].Header.Number)
	require.Equal(t, 2, calls)
}
