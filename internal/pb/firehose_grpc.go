package pb

import (
	"context"

	"google.golang.org/grpc"
)

// This file mirrors what protoc-gen-go-grpc emits from proto/firehose.proto
// (service registration, method handlers, typed stream wrappers) — hand
// authored for the same reason types.go's Marshal/Unmarshal pairs are: no
// protoc/buf invocation happens in this exercise.

// StreamServer is the server API for the Stream service.
type StreamServer interface {
	Blocks(*Request, Stream_BlocksServer) error
}

// Stream_BlocksServer is the server-side stream handle for Stream.Blocks.
type Stream_BlocksServer interface {
	Send(*Response) error
	grpc.ServerStream
}

type streamBlocksServer struct {
	grpc.ServerStream
}

func (x *streamBlocksServer) Send(m *Response) error {
	return x.ServerStream.SendMsg(m)
}

func _Stream_Blocks_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(Request)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(StreamServer).Blocks(m, &streamBlocksServer{ServerStream: stream})
}

// Stream_ServiceDesc is the grpc.ServiceDesc for the Stream service.
var Stream_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "sf.firehose.v2.Stream",
	HandlerType: (*StreamServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Blocks",
			Handler:       _Stream_Blocks_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "firehose.proto",
}

// RegisterStreamServer registers srv as the Stream service implementation
// on s.
func RegisterStreamServer(s grpc.ServiceRegistrar, srv StreamServer) {
	s.RegisterService(&Stream_ServiceDesc, srv)
}

// FetchServer is the server API for the Fetch service.
type FetchServer interface {
	Block(context.Context, *SingleBlockRequest) (*SingleBlockResponse, error)
}

func _Fetch_Block_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SingleBlockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FetchServer).Block(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/sf.firehose.v2.Fetch/Block"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FetchServer).Block(ctx, req.(*SingleBlockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Fetch_ServiceDesc is the grpc.ServiceDesc for the Fetch service.
var Fetch_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "sf.firehose.v2.Fetch",
	HandlerType: (*FetchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Block", Handler: _Fetch_Block_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "firehose.proto",
}

// RegisterFetchServer registers srv as the Fetch service implementation on
// s.
func RegisterFetchServer(s grpc.ServiceRegistrar, srv FetchServer) {
	s.RegisterService(&Fetch_ServiceDesc, srv)
}
