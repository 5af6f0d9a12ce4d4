package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
)

func TestBuildQueryAddsTraceFilters(t *testing.T) {
	q := BuildQuery(chain.DataRequest{
		From:   1,
		Traces: []chain.TraceRequest{{Addresses: []string{"0xabc"}, Sighash: []string{"0x12345678"}}},
	})
	require.Len(t, q.Traces, 1)
	require.Equal(t, []string{"0xabc"}, q.Traces[0].CallTo)
}

func TestSourceStreamsNdjson(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/height", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("12"))
	})
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"header":{"number":10,"hash":"0xa","timestamp":1}}` + "\n"))
		w.Write([]byte(`{"header":{"number":11,"hash":"0xb","timestamp":2}}` + "\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := NewSource(log.New(), NewClient(log.New(), srv.URL))

	var got datasource.BlockBatch
	err := src.GetFinalizedBlocks(context.Background(), chain.DataRequest{From: 10, To: uint64Ptr(11)}, true, func(batch datasource.BlockBatch) error {
		got = append(got, batch...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint64(10), got[0].Header.Number)
	require.Equal(t, uint64(11), got[1].Header.Number)
}

func uint64Ptr(v uint64) *uint64 { return &v }
