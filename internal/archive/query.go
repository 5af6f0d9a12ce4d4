package archive

import "github.com/sqd-archives/firehose-bridge/internal/chain"

// BuildQuery translates a canonical DataRequest into an archive BatchRequest,
// per spec §4.4: every block field is always requested; log/transaction/
// trace fields and the filter lists are enabled only when the corresponding
// filter kind is present, mirroring ds_archive.rs's field-selection switch.
func BuildQuery(req chain.DataRequest) BatchRequest {
	q := BatchRequest{
		FromBlock: req.From,
		ToBlock:   req.To,
		Fields: FieldSelection{
			Block: &BlockFieldSelection{
				Number: true, Hash: true, ParentHash: true, Difficulty: true,
				TotalDifficulty: true, Size: true, Sha3Uncles: true, GasLimit: true,
				GasUsed: true, Timestamp: true, Miner: true, StateRoot: true,
				TransactionsRoot: true, ReceiptsRoot: true, LogsBloom: true,
				ExtraData: true, MixHash: true, BaseFeePerGas: true, Nonce: true,
			},
		},
	}

	if req.HasLogFilters() {
		enableTxAndTraceFields(&q.Fields)
		q.Fields.Log = &LogFieldSelection{
			Address: true, Data: true, LogIndex: true, Topics: true, TransactionIndex: true,
		}
		for _, l := range req.Logs {
			q.Logs = append(q.Logs, LogRequest{
				Address:           l.Addresses,
				Topic0:            l.Topic0,
				Transaction:       true,
				TransactionTraces: true,
			})
		}
	}

	if req.HasCallFilters() {
		enableTxAndTraceFields(&q.Fields)
		for _, c := range req.Calls {
			q.Transactions = append(q.Transactions, TxRequest{
				To:      c.Addresses,
				Sighash: c.Sighash,
				Traces:  true,
			})
		}
	}

	return q
}

func enableTxAndTraceFields(f *FieldSelection) {
	f.Transaction = &TxFieldSelection{
		CumulativeGasUsed: true, EffectiveGasPrice: true, From: true, Gas: true,
		GasPrice: true, GasUsed: true, Input: true, MaxFeePerGas: true,
		MaxPriorityFeePerGas: true, Nonce: true, R: true, S: true, Hash: true,
		Status: true, To: true, TransactionIndex: true, Type: true, V: true,
		Value: true, YParity: true,
	}
	f.Trace = &TraceFieldSelection{
		TransactionIndex: true, Type: true, Error: true, RevertReason: true,
		CreateFrom: true, CreateValue: true, CreateGas: true, CreateResultGasUsed: true,
		CreateResultAddress: true, CallFrom: true, CallTo: true, CallValue: true,
		CallGas: true, CallInput: true, CallType: true, CallResultGasUsed: true,
		CallResultOutput: true,
	}
}
