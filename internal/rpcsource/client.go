package rpcsource

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps a go-ethereum JSON-RPC client with the handful of methods
// the stride fetch and fork navigator need.
type Client struct {
	rpc *rpc.Client
	log log.Logger
}

// Dial connects to a JSON-RPC endpoint (HTTP or WebSocket).
func Dial(ctx context.Context, l log.Logger, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rpcsource: dial %s: %w", url, err)
	}
	return &Client{rpc: c, log: l}, nil
}

func (c *Client) blockNumber(ctx context.Context) (string, error) {
	var out string
	if err := c.rpc.CallContext(ctx, &out, "eth_blockNumber"); err != nil {
		return "", fmt.Errorf("eth_blockNumber: %w", err)
	}
	return out, nil
}

func (c *Client) getBlockByNumber(ctx context.Context, hexNumber string) (*rpcBlock, error) {
	var out *rpcBlock
	if err := c.rpc.CallContext(ctx, &out, "eth_getBlockByNumber", hexNumber, true); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber(%s): %w", hexNumber, err)
	}
	return out, nil
}

func (c *Client) getBlockByHash(ctx context.Context, hash string) (*rpcBlock, error) {
	var out *rpcBlock
	if err := c.rpc.CallContext(ctx, &out, "eth_getBlockByHash", hash, true); err != nil {
		return nil, fmt.Errorf("eth_getBlockByHash(%s): %w", hash, err)
	}
	return out, nil
}

// logFilter is the eth_getLogs request parameter shape.
type logFilter struct {
	FromBlock string     `json:"fromBlock"`
	ToBlock   string     `json:"toBlock"`
	Address   []string   `json:"address,omitempty"`
	Topics    [][]string `json:"topics,omitempty"`
}

func (c *Client) getLogs(ctx context.Context, f logFilter) ([]rpcLog, error) {
	var out []rpcLog
	if err := c.rpc.CallContext(ctx, &out, "eth_getLogs", f); err != nil {
		return nil, fmt.Errorf("eth_getLogs: %w", err)
	}
	return out, nil
}

// traceFilterParams is the trace_filter request parameter shape.
type traceFilterParams struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	ToAddress []string `json:"toAddress,omitempty"`
}

func (c *Client) traceFilter(ctx context.Context, p traceFilterParams) ([]rpcTrace, error) {
	var out []rpcTrace
	if err := c.rpc.CallContext(ctx, &out, "trace_filter", p); err != nil {
		return nil, fmt.Errorf("trace_filter: %w", err)
	}
	return out, nil
}

func (c *Client) traceTransaction(ctx context.Context, hash string) ([]rpcTrace, error) {
	var out []rpcTrace
	if err := c.rpc.CallContext(ctx, &out, "trace_transaction", hash); err != nil {
		return nil, fmt.Errorf("trace_transaction(%s): %w", hash, err)
	}
	return out, nil
}

func (c *Client) getTransactionReceipt(ctx context.Context, hash string) (*rpcReceipt, error) {
	var out *rpcReceipt
	if err := c.rpc.CallContext(ctx, &out, "eth_getTransactionReceipt", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionReceipt(%s): %w", hash, err)
	}
	return out, nil
}

// debugTraceOpts is the debug_traceTransaction tracer-config parameter.
type debugTraceOpts struct {
	Tracer       string `json:"tracer"`
	TracerConfig struct {
		WithLog     bool `json:"withLog"`
		OnlyTopCall bool `json:"onlyTopCall"`
	} `json:"tracerConfig"`
}

func (c *Client) debugTraceTransaction(ctx context.Context, hash string) (*callFrame, error) {
	opts := debugTraceOpts{Tracer: "callTracer"}
	opts.TracerConfig.WithLog = true
	opts.TracerConfig.OnlyTopCall = false

	var out *callFrame
	if err := c.rpc.CallContext(ctx, &out, "debug_traceTransaction", hash, opts); err != nil {
		return nil, fmt.Errorf("debug_traceTransaction(%s): %w", hash, err)
	}
	return out, nil
}
