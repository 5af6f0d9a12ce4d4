package rpcsource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func TestHeightTrackerCachesWithinTTL(t *testing.T) {
	var calls int32
	heights := []string{"0x1", "0x2"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_blockNumber", req.Method)

		i := atomic.AddInt32(&calls, 1) - 1
		h := heights[0]
		if int(i) < len(heights) {
			h = heights[i]
		} else {
			h = heights[len(heights)-1]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jsonrpcResponse(req.ID, h))
	}))
	defer srv.Close()

	client, err := Dial(context.Background(), log.Root(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := NewHeightTracker(ctx, client)

	h1, err := tracker.Height(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, h1)

	h2, err := tracker.Height(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, h2, "second call within TTL must be served from cache")

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestHeightTrackerNeverRegresses(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// The upstream reports 0x2 first, then a lower 0x1.
		h := "0x2"
		if atomic.AddInt32(&calls, 1) > 1 {
			h = "0x1"
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jsonrpcResponse(req.ID, h))
	}))
	defer srv.Close()

	client, err := Dial(context.Background(), log.Root(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := NewHeightTracker(ctx, client)

	h, err := tracker.Height(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, h)

	// Let the cache expire so the second call goes upstream again.
	time.Sleep(heightCacheTTL + 100*time.Millisecond)
	h, err = tracker.Height(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, h, "a lower upstream height must not regress the tracker")
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
