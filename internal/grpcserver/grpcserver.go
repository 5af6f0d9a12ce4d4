// Package grpcserver wires the orchestrator into the hand-authored
// sf.firehose.v2 Stream and Fetch services (internal/pb), implementing
// spec §6.1's gRPC surface.
package grpcserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sqd-archives/firehose-bridge/internal/cursor"
	"github.com/sqd-archives/firehose-bridge/internal/metrics"
	"github.com/sqd-archives/firehose-bridge/internal/orchestrator"
	"github.com/sqd-archives/firehose-bridge/internal/pb"
	"github.com/sqd-archives/firehose-bridge/internal/streamadapter"
	"github.com/sqd-archives/firehose-bridge/internal/transform"
	"github.com/sqd-archives/firehose-bridge/internal/wireblock"
)

// Server implements pb.StreamServer and pb.FetchServer atop a single
// Orchestrator.
type Server struct {
	orch    *orchestrator.Orchestrator
	metrics *metrics.Metrics
	log     log.Logger
}

var (
	_ pb.StreamServer = (*Server)(nil)
	_ pb.FetchServer  = (*Server)(nil)
)

// New builds a Server.
func New(l log.Logger, orch *orchestrator.Orchestrator, m *metrics.Metrics) *Server {
	return &Server{orch: orch, metrics: m, log: l}
}

// Blocks implements rpc Blocks(Request) returns (stream Response).
func (s *Server) Blocks(req *pb.Request, stream pb.Stream_BlocksServer) error {
	// spec §7: InvalidCursor is returned synchronously as an
	// INVALID_ARGUMENT-style status, never surfaced mid-stream.
	if req.Cursor != "" {
		if _, err := cursor.Parse(req.Cursor); err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}

	filter, err := transform.Compile(req.Transforms)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	orchReq := orchestrator.Request{
		StartBlockNum: req.StartBlockNum,
		Cursor:        req.Cursor,
		StopBlockNum:  req.StopBlockNum,
		Filter:        filter,
	}

	ctx := stream.Context()
	return streamadapter.Run(ctx, s.log, s.metrics, s.orch, orchReq, func(ev orchestrator.Event) error {
		resp, err := encodeResponse(ev)
		if err != nil {
			return err
		}
		return stream.Send(resp)
	})
}

func encodeResponse(ev orchestrator.Event) (*pb.Response, error) {
	wire, err := wireblock.Encode(ev.Block)
	if err != nil {
		return nil, fmt.Errorf("grpcserver: encode block: %w", err)
	}
	any, err := wire.AsAny()
	if err != nil {
		return nil, fmt.Errorf("grpcserver: pack block: %w", err)
	}

	step := pb.StepNew
	if ev.Step == orchestrator.StepUndo {
		step = pb.StepUndo
	}

	return &pb.Response{Block: any, Step: step, Cursor: ev.Cursor.String()}, nil
}

// Block implements rpc Block(SingleBlockRequest) returns (SingleBlockResponse).
func (s *Server) Block(ctx context.Context, req *pb.SingleBlockRequest) (*pb.SingleBlockResponse, error) {
	ref, err := blockRefFromRequest(req)
	if err != nil {
		if errors.Is(err, cursor.ErrInvalidCursor) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	block, err := s.orch.FetchBlock(ctx, ref)
	if err != nil {
		s.log.Error("firehose fetch: failed", "err", err)
		return nil, status.Error(codes.Unavailable, "operation failed")
	}

	wire, err := wireblock.Encode(block)
	if err != nil {
		s.log.Error("firehose fetch: encode failed", "err", err)
		return nil, status.Error(codes.Unavailable, "operation failed")
	}
	any, err := wire.AsAny()
	if err != nil {
		s.log.Error("firehose fetch: pack failed", "err", err)
		return nil, status.Error(codes.Unavailable, "operation failed")
	}
	return &pb.SingleBlockResponse{Block: any}, nil
}

func blockRefFromRequest(req *pb.SingleBlockRequest) (orchestrator.BlockRef, error) {
	switch {
	case req.BlockNumber != nil:
		return orchestrator.BlockRef{Number: req.BlockNumber}, nil
	case req.BlockHashNumber != nil:
		return orchestrator.BlockRef{HashAndNumber: req.BlockHashNumber}, nil
	case req.Cursor != nil:
		if _, err := cursor.Parse(*req.Cursor); err != nil {
			return orchestrator.BlockRef{}, err
		}
		return orchestrator.BlockRef{Cursor: *req.Cursor}, nil
	}
	return orchestrator.BlockRef{}, fmt.Errorf("grpcserver: single block request carries no reference")
}
