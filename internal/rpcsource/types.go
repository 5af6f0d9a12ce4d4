// Package rpcsource implements the JSON-RPC data source (component 6):
// full-block fetches, log/trace filter calls, call-tree reconstruction,
// and a live, reorg-aware hot-block stream built atop the fork navigator.
package rpcsource

import "encoding/json"

// rpcBlock is the eth_getBlockByNumber/eth_getBlockByHash(full=true)
// response shape; every numeric field arrives as a 0x-prefixed hex string.
type rpcBlock struct {
	Number           string            `json:"number"`
	Hash             string            `json:"hash"`
	ParentHash       string            `json:"parentHash"`
	Sha3Uncles       string            `json:"sha3Uncles"`
	Miner            string            `json:"miner"`
	StateRoot        string            `json:"stateRoot"`
	TransactionsRoot string            `json:"transactionsRoot"`
	ReceiptsRoot     string            `json:"receiptsRoot"`
	LogsBloom        string            `json:"logsBloom"`
	Difficulty       string            `json:"difficulty"`
	TotalDifficulty  string            `json:"totalDifficulty"`
	Size             string            `json:"size"`
	GasLimit         string            `json:"gasLimit"`
	GasUsed          string            `json:"gasUsed"`
	Timestamp        string            `json:"timestamp"`
	ExtraData        string            `json:"extraData"`
	MixHash          string            `json:"mixHash"`
	Nonce            string            `json:"nonce"`
	BaseFeePerGas    *string           `json:"baseFeePerGas,omitempty"`
	Transactions     []rpcTransaction  `json:"transactions"`
}

// rpcTransaction is one element of a full block's transactions array. It
// carries neither a receipt nor execution status; those arrive separately
// from eth_getTransactionReceipt.
type rpcTransaction struct {
	TransactionIndex     string  `json:"transactionIndex"`
	Hash                 string  `json:"hash"`
	Nonce                string  `json:"nonce"`
	From                 string  `json:"from"`
	To                   *string `json:"to,omitempty"`
	Input                string  `json:"input"`
	Value                string  `json:"value"`
	Gas                  string  `json:"gas"`
	GasPrice             string  `json:"gasPrice"`
	MaxFeePerGas         *string `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *string `json:"maxPriorityFeePerGas,omitempty"`
	V                    string  `json:"v"`
	R                    string  `json:"r"`
	S                    string  `json:"s"`
	YParity              *string `json:"yParity,omitempty"`
	Type                 *string `json:"type,omitempty"`
}

// rpcLog is the eth_getLogs response element shape.
type rpcLog struct {
	Address          string   `json:"address"`
	Data             string   `json:"data"`
	Topics           []string `json:"topics"`
	LogIndex         string   `json:"logIndex"`
	TransactionIndex string   `json:"transactionIndex"`
	TransactionHash  string   `json:"transactionHash"`
	BlockNumber      string   `json:"blockNumber"`
}

// rpcReceipt is the eth_getTransactionReceipt response shape.
type rpcReceipt struct {
	TransactionHash   string `json:"transactionHash"`
	TransactionIndex  string `json:"transactionIndex"`
	GasUsed           string `json:"gasUsed"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	EffectiveGasPrice string `json:"effectiveGasPrice"`
	Status            string `json:"status"`
	Type              string `json:"type"`
}

// rpcTraceAction/rpcTraceResult/rpcTrace mirror trace_filter and
// trace_transaction's Parity-style trace shape.
type rpcTraceAction struct {
	From     *string `json:"from,omitempty"`
	To       *string `json:"to,omitempty"`
	Value    *string `json:"value,omitempty"`
	Gas      *string `json:"gas,omitempty"`
	Input    *string `json:"input,omitempty"`
	CallType *string `json:"callType,omitempty"`
}

type rpcTraceResult struct {
	GasUsed *string `json:"gasUsed,omitempty"`
	Address *string `json:"address,omitempty"`
	Output  *string `json:"output,omitempty"`
}

type rpcTrace struct {
	TransactionHash  string          `json:"transactionHash"`
	TransactionPosition *int         `json:"transactionPosition,omitempty"`
	BlockNumber      json.Number     `json:"blockNumber"`
	Type             string          `json:"type"` // call / create / suicide / reward
	Error            *string         `json:"error,omitempty"`
	Action           *rpcTraceAction `json:"action,omitempty"`
	Result           *rpcTraceResult `json:"result,omitempty"`
	TraceAddress     []int           `json:"traceAddress"`
}

// callFrame is debug_traceTransaction(callTracer)'s recursive response
// shape.
type callFrame struct {
	Type    string      `json:"type"` // CALL / CALLCODE / STATICCALL / DELEGATECALL / CREATE / CREATE2 / SELFDESTRUCT
	From    string      `json:"from"`
	To      *string     `json:"to,omitempty"`
	Value   *string     `json:"value,omitempty"`
	Gas     *string     `json:"gas,omitempty"`
	GasUsed *string     `json:"gasUsed,omitempty"`
	Input   string      `json:"input"`
	Output  *string     `json:"output,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Calls   []callFrame `json:"calls,omitempty"`
}
