package rpcsource

import (
	"fmt"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/hexutil"
)

func toHeader(b rpcBlock) (chain.BlockHeader, error) {
	number, err := hexutil.QtyToUint64(b.Number)
	if err != nil {
		return chain.BlockHeader{}, fmt.Errorf("block number: %w", err)
	}
	size, err := hexutil.QtyToUint64(b.Size)
	if err != nil {
		return chain.BlockHeader{}, fmt.Errorf("block size: %w", err)
	}
	ts, err := hexutil.QtyToUint64(b.Timestamp)
	if err != nil {
		return chain.BlockHeader{}, fmt.Errorf("block timestamp: %w", err)
	}

	return chain.BlockHeader{
		Number:           number,
		Hash:             b.Hash,
		ParentHash:       b.ParentHash,
		Size:             size,
		UnclesHash:       b.Sha3Uncles,
		Miner:            b.Miner,
		StateRoot:        b.StateRoot,
		TransactionsRoot: b.TransactionsRoot,
		ReceiptsRoot:     b.ReceiptsRoot,
		LogsBloom:        b.LogsBloom,
		Difficulty:       b.Difficulty,
		TotalDifficulty:  b.TotalDifficulty,
		GasLimit:         b.GasLimit,
		GasUsed:          b.GasUsed,
		Timestamp:        ts,
		ExtraData:        b.ExtraData,
		MixHash:          b.MixHash,
		Nonce:            b.Nonce,
		BaseFeePerGas:    b.BaseFeePerGas,
	}, nil
}

func toLog(l rpcLog) (chain.Log, error) {
	logIndex, err := hexutil.QtyToUint64(l.LogIndex)
	if err != nil {
		return chain.Log{}, fmt.Errorf("log index: %w", err)
	}
	txIndex, err := hexutil.QtyToUint64(l.TransactionIndex)
	if err != nil {
		return chain.Log{}, fmt.Errorf("log transaction index: %w", err)
	}
	return chain.Log{
		Address:          l.Address,
		Data:             l.Data,
		Topics:           l.Topics,
		LogIndex:         uint32(logIndex),
		TransactionIndex: uint32(txIndex),
	}, nil
}

// toTransaction converts a block-embedded rpcTransaction and its receipt
// into a canonical Transaction.
func toTransaction(tx rpcTransaction, r rpcReceipt) (chain.Transaction, error) {
	txIndex, err := hexutil.QtyToUint64(tx.TransactionIndex)
	if err != nil {
		return chain.Transaction{}, fmt.Errorf("transaction index: %w", err)
	}
	nonce, err := hexutil.QtyToUint64(tx.Nonce)
	if err != nil {
		return chain.Transaction{}, fmt.Errorf("nonce: %w", err)
	}

	var txType int32
	if tx.Type != nil {
		v, err := hexutil.QtyToUint64(*tx.Type)
		if err != nil {
			return chain.Transaction{}, fmt.Errorf("transaction type: %w", err)
		}
		txType = int32(v)
	}

	var yParity *uint8
	if tx.YParity != nil {
		v, err := hexutil.QtyToUint64(*tx.YParity)
		if err != nil {
			return chain.Transaction{}, fmt.Errorf("yParity: %w", err)
		}
		p := uint8(v)
		yParity = &p
	}

	status, err := hexutil.QtyToUint64(r.Status)
	if err != nil {
		return chain.Transaction{}, fmt.Errorf("status: %w", err)
	}

	return chain.Transaction{
		TransactionIndex:     uint32(txIndex),
		Hash:                 tx.Hash,
		Nonce:                nonce,
		From:                 tx.From,
		To:                   tx.To,
		Input:                tx.Input,
		Value:                tx.Value,
		Gas:                  tx.Gas,
		GasPrice:             tx.GasPrice,
		MaxFeePerGas:         tx.MaxFeePerGas,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
		V:                    tx.V,
		R:                    tx.R,
		S:                    tx.S,
		YParity:              yParity,
		GasUsed:              r.GasUsed,
		CumulativeGasUsed:    r.CumulativeGasUsed,
		EffectiveGasPrice:    r.EffectiveGasPrice,
		Type:                 txType,
		Status:               int32(status),
	}, nil
}

var rpcTraceTypes = map[string]chain.TraceType{
	"call":    chain.TraceCall,
	"create":  chain.TraceCreate,
	"suicide": chain.TraceSuicide,
	"reward":  chain.TraceReward,
}

var rpcCallTypes = map[string]chain.CallType{
	"call":         chain.CallTypeCall,
	"callcode":     chain.CallTypeCallcode,
	"delegatecall": chain.CallTypeDelegatecall,
	"staticcall":   chain.CallTypeStaticcall,
}

// toTrace converts a Parity-style trace_filter/trace_transaction record,
// which already carries its call-tree position as traceAddress.
func toTrace(txIndex uint32, t rpcTrace) chain.Trace {
	out := chain.Trace{
		TransactionIndex: txIndex,
		Type:             rpcTraceTypes[t.Type],
		Error:            t.Error,
		TraceAddress:     t.TraceAddress,
	}
	if out.TraceAddress == nil {
		out.TraceAddress = []int{}
	}
	if t.Action != nil {
		action := &chain.TraceAction{From: t.Action.From, To: t.Action.To, Value: t.Action.Value, Gas: t.Action.Gas, Input: t.Action.Input}
		if t.Action.CallType != nil {
			if ct, ok := rpcCallTypes[*t.Action.CallType]; ok {
				action.Type = &ct
			}
		}
		out.Action = action
	}
	if t.Result != nil {
		out.Result = &chain.TraceResult{GasUsed: t.Result.GasUsed, Address: t.Result.Address, Output: t.Result.Output}
	}
	return out
}

// sighash returns the 4-byte function selector of a call's input data, or
// empty when the input is too short to carry one.
func sighash(input string) (string, bool) {
	body := input
	if len(body) >= 2 && body[:2] == "0x" {
		body = body[2:]
	}
	if len(body) < 8 {
		return "", false
	}
	return "0x" + body[:8], true
}
