package archive

import "github.com/sqd-archives/firehose-bridge/internal/chain"

var traceTypes = map[string]chain.TraceType{
	"create":  chain.TraceCreate,
	"call":    chain.TraceCall,
	"suicide": chain.TraceSuicide,
	"reward":  chain.TraceReward,
}

var callTypes = map[string]chain.CallType{
	"call":         chain.CallTypeCall,
	"callcode":     chain.CallTypeCallcode,
	"delegatecall": chain.CallTypeDelegatecall,
	"staticcall":   chain.CallTypeStaticcall,
}

// ToBlock converts an archive wire Block into the canonical model. The
// portal adapter reuses it since the portal's newline-delimited blocks
// share the archive's field shapes.
func ToBlock(b Block) chain.Block {
	return toBlock(b)
}

func toBlock(b Block) chain.Block {
	out := chain.Block{
		Header: chain.BlockHeader{
			Number:           b.Header.Number,
			Hash:             b.Header.Hash,
			ParentHash:       b.Header.ParentHash,
			Size:             b.Header.Size,
			UnclesHash:       b.Header.Sha3Uncles,
			Miner:            b.Header.Miner,
			StateRoot:        b.Header.StateRoot,
			TransactionsRoot: b.Header.TransactionsRoot,
			ReceiptsRoot:     b.Header.ReceiptsRoot,
			LogsBloom:        b.Header.LogsBloom,
			Difficulty:       b.Header.Difficulty,
			TotalDifficulty:  b.Header.TotalDifficulty,
			GasLimit:         b.Header.GasLimit,
			GasUsed:          b.Header.GasUsed,
			Timestamp:        uint64(b.Header.Timestamp),
			ExtraData:        b.Header.ExtraData,
			MixHash:          b.Header.MixHash,
			Nonce:            b.Header.Nonce,
			BaseFeePerGas:    b.Header.BaseFeePerGas,
		},
	}

	for _, l := range b.Logs {
		out.Logs = append(out.Logs, chain.Log{
			Address:          l.Address,
			Data:             l.Data,
			Topics:           l.Topics,
			LogIndex:         l.LogIndex,
			TransactionIndex: l.TransactionIndex,
		})
	}

	for _, tx := range b.Transactions {
		out.Transactions = append(out.Transactions, chain.Transaction{
			TransactionIndex:     tx.TransactionIndex,
			Hash:                 tx.Hash,
			Nonce:                tx.Nonce,
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
			YParity:              tx.YParity,
			GasUsed:              tx.GasUsed,
			CumulativeGasUsed:    tx.CumulativeGasUsed,
			EffectiveGasPrice:    tx.EffectiveGasPrice,
			Type:                 tx.Type,
			Status:               tx.Status,
		})
	}

	for _, tr := range b.Traces {
		out.Traces = append(out.Traces, chain.Trace{
			TransactionIndex: tr.TransactionIndex,
			Type:             traceTypes[tr.Type],
			Error:            tr.Error,
			RevertReason:     tr.RevertReason,
			Action:           toTraceAction(tr.Action),
			Result:           toTraceResult(tr.Result),
			// TraceAddress is left nil: the archive format carries no call-tree
			// position, only the RPC adapter's trace sources do.
		})
	}

	return out
}

func toTraceAction(a *TraceAction) *chain.TraceAction {
	if a == nil {
		return nil
	}
	out := &chain.TraceAction{From: a.From, To: a.To, Value: a.Value, Gas: a.Gas, Input: a.Input}
	if a.Type != nil {
		if ct, ok := callTypes[*a.Type]; ok {
			out.Type = &ct
		}
	}
	return out
}

func toTraceResult(r *TraceResult) *chain.TraceResult {
	if r == nil {
		return nil
	}
	return &chain.TraceResult{GasUsed: r.GasUsed, Address: r.Address, Output: r.Output}
}
