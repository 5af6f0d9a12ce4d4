// Package archive implements the batch HTTP data source (component 5):
// querying a Subsquid-style archive for finalized block ranges.
package archive

import (
	"encoding/json"
	"fmt"
	"math"
)

// timestamp decodes an upstream timestamp that may be serialized as either
// a JSON integer or a JSON float, using floor semantics per spec §4.4.
type timestamp uint64

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	if u, err := n.Int64(); err == nil {
		*t = timestamp(u)
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("decode timestamp %q: %w", n.String(), err)
	}
	*t = timestamp(math.Floor(f))
	return nil
}

// BlockHeader is the archive's wire shape for a block header.
type BlockHeader struct {
	Number          uint64     `json:"number"`
	Hash            string     `json:"hash"`
	ParentHash      string     `json:"parentHash"`
	Size            uint64     `json:"size"`
	Sha3Uncles      string     `json:"sha3Uncles"`
	Miner           string     `json:"miner"`
	StateRoot       string     `json:"stateRoot"`
	TransactionsRoot string    `json:"transactionsRoot"`
	ReceiptsRoot    string     `json:"receiptsRoot"`
	LogsBloom       string     `json:"logsBloom"`
	Difficulty      string     `json:"difficulty"`
	TotalDifficulty string     `json:"totalDifficulty"`
	GasLimit        string     `json:"gasLimit"`
	GasUsed         string     `json:"gasUsed"`
	Timestamp       timestamp  `json:"timestamp"`
	ExtraData       string     `json:"extraData"`
	MixHash         string     `json:"mixHash"`
	Nonce           string     `json:"nonce"`
	BaseFeePerGas   *string    `json:"baseFeePerGas,omitempty"`
}

// Log is the archive's wire shape for an event log.
type Log struct {
	Address          string   `json:"address"`
	Data             string   `json:"data"`
	Topics           []string `json:"topics"`
	LogIndex         uint32   `json:"logIndex"`
	TransactionIndex uint32   `json:"transactionIndex"`
}

// Transaction is the archive's wire shape for a transaction.
type Transaction struct {
	TransactionIndex     uint32  `json:"transactionIndex"`
	Hash                 string  `json:"hash"`
	Nonce                uint64  `json:"nonce"`
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
	YParity              *uint8  `json:"yParity,omitempty"`
	GasUsed              string  `json:"gasUsed"`
	CumulativeGasUsed    string  `json:"cumulativeGasUsed"`
	EffectiveGasPrice    string  `json:"effectiveGasPrice"`
	Type                 int32   `json:"type"`
	Status               int32   `json:"status"`
}

// TraceAction is the archive's wire shape for a trace's request half.
type TraceAction struct {
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
	Value *string `json:"value,omitempty"`
	Gas   *string `json:"gas,omitempty"`
	Input *string `json:"input,omitempty"`
	Type  *string `json:"type,omitempty"` // call / callcode / delegatecall / staticcall
}

// TraceResult is the archive's wire shape for a trace's outcome half.
type TraceResult struct {
	GasUsed *string `json:"gasUsed,omitempty"`
	Address *string `json:"address,omitempty"`
	Output  *string `json:"output,omitempty"`
}

// Trace is the archive's wire shape for a single call/create/suicide/reward
// frame.
type Trace struct {
	TransactionIndex uint32       `json:"transactionIndex"`
	Type             string       `json:"type"` // create / call / suicide / reward
	Error            *string      `json:"error,omitempty"`
	RevertReason     *string      `json:"revertReason,omitempty"`
	Action           *TraceAction `json:"action,omitempty"`
	Result           *TraceResult `json:"result,omitempty"`
}

// Block is one element of the archive's query response array.
type Block struct {
	Header       BlockHeader   `json:"header"`
	Logs         []Log         `json:"logs,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Traces       []Trace       `json:"traces,omitempty"`
}

// Field selection mirrors the archive's BatchRequest.fields shape.
// BuildQuery sets every field of each section it enables to true (spec
// §4.4 enables fields per section, not per field); Source.GetBlockHash is
// the one query that requests a partial block section (number and hash).

type BlockFieldSelection struct {
	Number           bool `json:"number"`
	Hash             bool `json:"hash"`
	ParentHash       bool `json:"parentHash"`
	Difficulty       bool `json:"difficulty"`
	TotalDifficulty  bool `json:"totalDifficulty"`
	Size             bool `json:"size"`
	Sha3Uncles       bool `json:"sha3Uncles"`
	GasLimit         bool `json:"gasLimit"`
	GasUsed          bool `json:"gasUsed"`
	Timestamp        bool `json:"timestamp"`
	Miner            bool `json:"miner"`
	StateRoot        bool `json:"stateRoot"`
	TransactionsRoot bool `json:"transactionsRoot"`
	ReceiptsRoot     bool `json:"receiptsRoot"`
	LogsBloom        bool `json:"logsBloom"`
	ExtraData        bool `json:"extraData"`
	MixHash          bool `json:"mixHash"`
	BaseFeePerGas    bool `json:"baseFeePerGas"`
	Nonce            bool `json:"nonce"`
}

type LogFieldSelection struct {
	Address          bool `json:"address"`
	Data             bool `json:"data"`
	LogIndex         bool `json:"logIndex"`
	Topics           bool `json:"topics"`
	TransactionIndex bool `json:"transactionIndex"`
}

type TxFieldSelection struct {
	CumulativeGasUsed    bool `json:"cumulativeGasUsed"`
	EffectiveGasPrice    bool `json:"effectiveGasPrice"`
	From                 bool `json:"from"`
	Gas                  bool `json:"gas"`
	GasPrice             bool `json:"gasPrice"`
	GasUsed              bool `json:"gasUsed"`
	Input                bool `json:"input"`
	MaxFeePerGas         bool `json:"maxFeePerGas"`
	MaxPriorityFeePerGas bool `json:"maxPriorityFeePerGas"`
	Nonce                bool `json:"nonce"`
	R                    bool `json:"r"`
	S                    bool `json:"s"`
	Hash                 bool `json:"hash"`
	Status               bool `json:"status"`
	To                   bool `json:"to"`
	TransactionIndex     bool `json:"transactionIndex"`
	Type                 bool `json:"type"`
	V                    bool `json:"v"`
	Value                bool `json:"value"`
	YParity              bool `json:"yParity"`
}

type TraceFieldSelection struct {
	TransactionIndex    bool `json:"transactionIndex"`
	Type                bool `json:"type"`
	Error               bool `json:"error"`
	RevertReason        bool `json:"revertReason"`
	CreateFrom          bool `json:"createFrom"`
	CreateValue         bool `json:"createValue"`
	CreateGas           bool `json:"createGas"`
	CreateResultGasUsed bool `json:"createResultGasUsed"`
	CreateResultAddress bool `json:"createResultAddress"`
	CallFrom            bool `json:"callFrom"`
	CallTo              bool `json:"callTo"`
	CallValue           bool `json:"callValue"`
	CallGas             bool `json:"callGas"`
	CallInput           bool `json:"callInput"`
	CallType            bool `json:"callType"`
	CallResultGasUsed   bool `json:"callResultGasUsed"`
	CallResultOutput    bool `json:"callResultOutput"`
}

type FieldSelection struct {
	Block       *BlockFieldSelection `json:"block,omitempty"`
	Log         *LogFieldSelection   `json:"log,omitempty"`
	Transaction *TxFieldSelection    `json:"transaction,omitempty"`
	Trace       *TraceFieldSelection `json:"trace,omitempty"`
}

// LogRequest is one element of BatchRequest.logs.
type LogRequest struct {
	Address            []string `json:"address"`
	Topic0             []string `json:"topic0"`
	Transaction        bool     `json:"transaction"`
	TransactionTraces  bool     `json:"transactionTraces"`
}

// TxRequest is one element of BatchRequest.transactions.
type TxRequest struct {
	To      []string `json:"to"`
	Sighash []string `json:"sighash"`
	Traces  bool     `json:"traces"`
}

// BatchRequest is the JSON body posted to an archive worker.
type BatchRequest struct {
	FromBlock    uint64         `json:"fromBlock"`
	ToBlock      *uint64        `json:"toBlock,omitempty"`
	Fields       FieldSelection `json:"fields"`
	Logs         []LogRequest   `json:"logs,omitempty"`
	Transactions []TxRequest    `json:"transactions,omitempty"`
}
