// Package portal implements the newline-delimited-JSON streaming HTTP data
// source, an alternative batch-archive transport some archive deployments
// expose instead of (or alongside) the worker-redirect protocol in
// internal/archive.
package portal

import (
	"github.com/sqd-archives/firehose-bridge/internal/archive"
	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

// TraceRequest is a portal-only filter kind: the portal can push trace-level
// predicates upstream, unlike the archive worker protocol.
type TraceRequest struct {
	CallTo      []string `json:"callTo"`
	CallSighash []string `json:"callSighash"`
	Transaction bool     `json:"transaction"`
	Parents     bool     `json:"parents"`
}

// Query is the JSON body posted to {portal}/stream.
type Query struct {
	FromBlock    uint64                `json:"fromBlock"`
	ToBlock      *uint64               `json:"toBlock,omitempty"`
	Fields       archive.FieldSelection `json:"fields"`
	Logs         []archive.LogRequest  `json:"logs,omitempty"`
	Transactions []archive.TxRequest   `json:"transactions,omitempty"`
	Traces       []TraceRequest        `json:"traces,omitempty"`
}

// BuildQuery translates a canonical DataRequest into a portal Query,
// reusing the archive adapter's field-selection and filter-translation
// logic for the block/log/transaction portion and adding trace-filter
// translation, the one filter kind the portal can push upstream that the
// archive worker protocol cannot.
func BuildQuery(req chain.DataRequest) Query {
	base := archive.BuildQuery(req)
	q := Query{
		FromBlock:    base.FromBlock,
		ToBlock:      base.ToBlock,
		Fields:       base.Fields,
		Logs:         base.Logs,
		Transactions: base.Transactions,
	}

	if len(req.Traces) > 0 {
		for _, tr := range req.Traces {
			q.Traces = append(q.Traces, TraceRequest{
				CallTo:      tr.Addresses,
				CallSighash: tr.Sighash,
				Transaction: true,
			})
		}
	}

	return q
}
