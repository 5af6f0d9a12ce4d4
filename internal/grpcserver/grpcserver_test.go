package grpcserver

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
	"github.com/sqd-archives/firehose-bridge/internal/metrics"
	"github.com/sqd-archives/firehose-bridge/internal/orchestrator"
	"github.com/sqd-archives/firehose-bridge/internal/pb"
)

// fakeBlocksStream is the minimum grpc.ServerStream implementation the
// Blocks handler needs to reach its synchronous cursor check.
type fakeBlocksStream struct {
	ctx  context.Context
	sent []*pb.Response
}

func (f *fakeBlocksStream) Send(m *pb.Response) error    { f.sent = append(f.sent, m); return nil }
func (f *fakeBlocksStream) SetHeader(metadata.MD) error  { return nil }
func (f *fakeBlocksStream) SendHeader(metadata.MD) error { return nil }
func (f *fakeBlocksStream) SetTrailer(metadata.MD)       {}
func (f *fakeBlocksStream) Context() context.Context     { return f.ctx }
func (f *fakeBlocksStream) SendMsg(m interface{}) error  { return nil }
func (f *fakeBlocksStream) RecvMsg(m interface{}) error  { return nil }

var _ grpc.ServerStream = (*fakeBlocksStream)(nil)

type noopFinalized struct{ err error }

func (s *noopFinalized) GetFinalizedBlocks(context.Context, chain.DataRequest, bool, datasource.BlockBatchFunc) error {
	return s.err
}
func (s *noopFinalized) GetFinalizedHeight(context.Context) (uint64, error) { return 0, s.err }
func (s *noopFinalized) GetBlockHash(context.Context, uint64) (string, error) {
	return "", s.err
}

var _ datasource.DataSource = (*noopFinalized)(nil)

func TestBlocksRejectsMalformedCursorSynchronously(t *testing.T) {
	orch := orchestrator.New(log.New(), &noopFinalized{}, nil)
	srv := New(log.New(), orch, metrics.New())

	stream := &fakeBlocksStream{ctx: context.Background()}
	err := srv.Blocks(&pb.Request{Cursor: "not-a-cursor"}, stream)
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Empty(t, stream.sent)
}

func TestBlockRejectsMalformedCursor(t *testing.T) {
	orch := orchestrator.New(log.New(), &noopFinalized{}, nil)
	srv := New(log.New(), orch, metrics.New())

	cursorStr := "not-a-cursor"
	_, err := srv.Block(context.Background(), &pb.SingleBlockRequest{Cursor: &cursorStr})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestBlockMapsUpstreamFailureToUnavailable(t *testing.T) {
	orch := orchestrator.New(log.New(), &noopFinalized{err: errors.New("boom")}, nil)
	srv := New(log.New(), orch, metrics.New())

	num := uint64(5)
	_, err := srv.Block(context.Background(), &pb.SingleBlockRequest{BlockNumber: &num})
	require.Error(t, err)
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.Equal(t, "operation failed", status.Convert(err).Message())
}
