package transform

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/sqd-archives/firehose-bridge/internal/pb"
)

func packFilter(t *testing.T, f *pb.CombinedFilter) *anypb.Any {
	t.Helper()
	data, err := f.Marshal()
	require.NoError(t, err)
	return &anypb.Any{TypeUrl: pb.CombinedFilterTypeURL, Value: data}
}

func TestCompileMergesLogAndCallFilters(t *testing.T) {
	cf := &pb.CombinedFilter{
		LogFilters: []pb.LogFilter{
			{Addresses: [][]byte{{0xab, 0xcd}}, EventSignatures: [][]byte{{0x11, 0x22, 0x33, 0x44}}},
		},
		CallFilters: []pb.CallToFilter{
			{Addresses: [][]byte{{0xef}}, Signatures: [][]byte{{0x01, 0x02, 0x03, 0x04}}},
		},
	}

	req, err := Compile([]*anypb.Any{packFilter(t, cf)})
	require.NoError(t, err)
	require.Len(t, req.Logs, 1)
	require.Equal(t, []string{"0xabcd"}, req.Logs[0].Addresses)
	require.Equal(t, []string{"0x11223344"}, req.Logs[0].Topic0)
	require.Len(t, req.Calls, 1)
	require.Equal(t, []string{"0xef"}, req.Calls[0].Addresses)
	require.Equal(t, []string{"0x01020304"}, req.Calls[0].Sighash)
}

func TestCompileIgnoresUnknownTypeURL(t *testing.T) {
	data, err := (&pb.CombinedFilter{SendAllBlockHeaders: true}).Marshal()
	require.NoError(t, err)
	any := &anypb.Any{TypeUrl: "type.googleapis.com/unknown.Thing", Value: data}

	req, err := Compile([]*anypb.Any{any})
	require.NoError(t, err)
	require.Empty(t, req.Logs)
	require.Empty(t, req.Calls)
}
