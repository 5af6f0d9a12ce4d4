// Command firehose-bridge serves a Firehose v2 gRPC surface backed by an
// archive/portal history source and an optional live JSON-RPC source.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcrecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	pkgerrors "github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/sqd-archives/firehose-bridge/internal/archive"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
	"github.com/sqd-archives/firehose-bridge/internal/grpcserver"
	"github.com/sqd-archives/firehose-bridge/internal/metrics"
	"github.com/sqd-archives/firehose-bridge/internal/orchestrator"
	"github.com/sqd-archives/firehose-bridge/internal/pb"
	"github.com/sqd-archives/firehose-bridge/internal/portal"
	"github.com/sqd-archives/firehose-bridge/internal/rpcsource"
)

const (
	flagArchive         = "archive"
	flagPortal          = "portal"
	flagRPC             = "rpc"
	flagFinalityConfirm = "finality-confirmation"
	flagLogLevel        = "log.level"
	flagGRPCAddr        = "grpc-listen-addr"
	flagMetricsAddr     = "metrics-listen-addr"
	defaultGRPCAddr     = "0.0.0.0:13042"
	defaultMetricsAddr  = "0.0.0.0:3000"
)

func main() {
	app := &cli.App{
		Name:  "firehose-bridge",
		Usage: "Firehose v2 gRPC bridge over an Ethereum archive and/or RPC source",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagArchive, Usage: "archive/portal worker base URL"},
			&cli.BoolFlag{Name: flagPortal, Usage: "treat --archive as a portal-style endpoint"},
			&cli.StringFlag{Name: flagRPC, Usage: "JSON-RPC endpoint URL for the hot source"},
			&cli.Uint64Flag{Name: flagFinalityConfirm, Usage: "blocks below tip considered finalized; required when --rpc is set"},
			&cli.StringFlag{Name: flagLogLevel, Value: "info", Usage: "log level: trace|debug|info|warn|error|crit"},
			&cli.StringFlag{Name: flagGRPCAddr, Value: defaultGRPCAddr, Usage: "gRPC listen address"},
			&cli.StringFlag{Name: flagMetricsAddr, Value: defaultMetricsAddr, Usage: "metrics HTTP listen address"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("firehose-bridge exited", "err", err)
	}
}

func run(c *cli.Context) error {
	level, err := log.LvlFromString(c.String(flagLogLevel))
	if err != nil {
		return pkgerrors.Wrap(err, "invalid log level")
	}
	glogger := log.NewGlogHandler(log.NewTerminalHandler(os.Stderr, false))
	glogger.Verbosity(level)
	l := log.NewLogger(glogger)
	log.SetDefault(l)

	if c.String(flagArchive) == "" {
		return errors.New("firehose-bridge: --archive is required")
	}
	if c.String(flagRPC) != "" && !c.IsSet(flagFinalityConfirm) {
		return errors.New("firehose-bridge: --finality-confirmation is required when --rpc is set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var finalized datasource.DataSource
	if c.Bool(flagPortal) {
		client := portal.NewClient(l, c.String(flagArchive))
		finalized = portal.NewSource(l, client)
	} else {
		client := archive.NewClient(l, c.String(flagArchive))
		finalized = archive.NewSource(l, client)
	}

	m := metrics.New()

	var hot datasource.HotDataSource
	if c.String(flagRPC) != "" {
		rpcClient, err := rpcsource.Dial(ctx, l, c.String(flagRPC))
		if err != nil {
			return pkgerrors.Wrap(err, "dial rpc")
		}
		src := rpcsource.NewSource(ctx, l, rpcClient, c.Uint64(flagFinalityConfirm))
		src.OnConsistencyRetry(m.ConsistencyRetries.Inc)
		hot = src
	}

	orch := orchestrator.New(l, finalized, hot)

	pb.RegisterCodec()
	recoveryOpts := []grpcrecovery.Option{
		grpcrecovery.WithRecoveryHandler(func(p interface{}) error {
			l.Error("firehose grpc: recovered from panic", "panic", p)
			return fmt.Errorf("internal error")
		}),
	}
	grpcSrv := grpc.NewServer(
		grpc.StreamInterceptor(grpcmiddleware.ChainStreamServer(grpcrecovery.StreamServerInterceptor(recoveryOpts...))),
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(grpcrecovery.UnaryServerInterceptor(recoveryOpts...))),
	)
	srv := grpcserver.New(l, orch, m)
	pb.RegisterStreamServer(grpcSrv, srv)
	pb.RegisterFetchServer(grpcSrv, srv)
	reflection.Register(grpcSrv)

	lis, err := net.Listen("tcp", c.String(flagGRPCAddr))
	if err != nil {
		return pkgerrors.Wrap(err, "listen grpc")
	}

	metricsSrv := m.Server(c.String(flagMetricsAddr))

	errs := make(chan error, 2)
	go func() {
		l.Info("serving gRPC", "addr", c.String(flagGRPCAddr))
		errs <- grpcSrv.Serve(lis)
	}()
	go func() {
		l.Info("serving metrics", "addr", c.String(flagMetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case <-ctx.Done():
		l.Info("shutting down")
		grpcSrv.GracefulStop()
		return metricsSrv.Shutdown(context.Background())
	case err := <-errs:
		return fmt.Errorf("firehose-bridge: %w", err)
	}
}
