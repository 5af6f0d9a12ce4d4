// Package wireblock implements component 8 of the spec: converting a
// canonical chain.Block into the Firehose v2 wire pb.Block, flattening
// trace trees per transaction and synthesizing a receipt the way
// ds_archive.rs/ds_rpc.rs's consumers expect.
package wireblock

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/hexutil"
	"github.com/sqd-archives/firehose-bridge/internal/pb"
)

// wireVersion is the Firehose v2 Block.ver this encoder emits.
const wireVersion = 2

// zeroBloom is the placeholder 256-byte logs bloom every synthesized
// receipt carries; spec §9 flags this as semantically wrong but required
// to preserve observed reference behavior.
var zeroBloom = make([]byte, 256)

// Encode converts a canonical block into the Firehose v2 wire Block.
func Encode(b chain.Block) (*pb.Block, error) {
	header, err := encodeHeader(b.Header)
	if err != nil {
		return nil, fmt.Errorf("wireblock: header: %w", err)
	}
	hash, err := hexutil.DecodeHex("hash", b.Header.Hash)
	if err != nil {
		return nil, fmt.Errorf("wireblock: block hash: %w", err)
	}

	logsByTx := map[uint32][]chain.Log{}
	for _, l := range b.Logs {
		logsByTx[l.TransactionIndex] = append(logsByTx[l.TransactionIndex], l)
	}
	tracesByTx := map[uint32][]chain.Trace{}
	for _, t := range b.Traces {
		tracesByTx[t.TransactionIndex] = append(tracesByTx[t.TransactionIndex], t)
	}

	traces := make([]*pb.TransactionTrace, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		tt, err := encodeTransaction(tx, logsByTx[tx.TransactionIndex], tracesByTx[tx.TransactionIndex])
		if err != nil {
			return nil, fmt.Errorf("wireblock: transaction %s: %w", tx.Hash, err)
		}
		traces = append(traces, tt)
	}

	return &pb.Block{
		Ver:               wireVersion,
		Hash:              hash,
		Number:            b.Header.Number,
		Size:              b.Header.Size,
		Header:            header,
		TransactionTraces: traces,
	}, nil
}

func encodeHeader(h chain.BlockHeader) (*pb.BlockHeader, error) {
	parentHash, err := hexutil.DecodeHex("parentHash", h.ParentHash)
	if err != nil {
		return nil, err
	}
	unclesHash, err := hexutil.DecodeHex("sha3Uncles", h.UnclesHash)
	if err != nil {
		return nil, err
	}
	miner, err := hexutil.DecodeHex("miner", h.Miner)
	if err != nil {
		return nil, err
	}
	stateRoot, err := hexutil.DecodeHex("stateRoot", h.StateRoot)
	if err != nil {
		return nil, err
	}
	txRoot, err := hexutil.DecodeHex("transactionsRoot", h.TransactionsRoot)
	if err != nil {
		return nil, err
	}
	receiptRoot, err := hexutil.DecodeHex("receiptsRoot", h.ReceiptsRoot)
	if err != nil {
		return nil, err
	}
	logsBloom, err := hexutil.DecodeHex("logsBloom", h.LogsBloom)
	if err != nil {
		return nil, err
	}
	difficulty, err := decodeBigInt("difficulty", h.Difficulty)
	if err != nil {
		return nil, err
	}
	totalDifficulty, err := decodeBigInt("totalDifficulty", h.TotalDifficulty)
	if err != nil {
		return nil, err
	}
	gasLimit, err := hexutil.QtyToUint64(h.GasLimit)
	if err != nil {
		return nil, err
	}
	gasUsed, err := hexutil.QtyToUint64(h.GasUsed)
	if err != nil {
		return nil, err
	}
	extraData, err := hexutil.DecodeHex("extraData", h.ExtraData)
	if err != nil {
		return nil, err
	}
	mixHash, err := hexutil.DecodeHex("mixHash", h.MixHash)
	if err != nil {
		return nil, err
	}
	nonce, err := hexutil.QtyToUint64(h.Nonce)
	if err != nil {
		return nil, err
	}
	hash, err := hexutil.DecodeHex("hash", h.Hash)
	if err != nil {
		return nil, err
	}
	var baseFee *pb.BigInt
	if h.BaseFeePerGas != nil {
		baseFee, err = decodeBigInt("baseFeePerGas", *h.BaseFeePerGas)
		if err != nil {
			return nil, err
		}
	}

	return &pb.BlockHeader{
		ParentHash:       parentHash,
		UncleHash:        unclesHash,
		Coinbase:         miner,
		StateRoot:        stateRoot,
		TransactionsRoot: txRoot,
		ReceiptRoot:      receiptRoot,
		LogsBloom:        logsBloom,
		Difficulty:       difficulty,
		TotalDifficulty:  totalDifficulty,
		Number:           h.Number,
		GasLimit:         gasLimit,
		GasUsed:          gasUsed,
		Timestamp:        encodeTimestamp(h.Timestamp),
		ExtraData:        extraData,
		MixHash:          mixHash,
		Nonce:            nonce,
		Hash:             hash,
		BaseFeePerGas:    baseFee,
	}, nil
}

func encodeTransaction(tx chain.Transaction, logs []chain.Log, traces []chain.Trace) (*pb.TransactionTrace, error) {
	sort.Slice(logs, func(i, j int) bool { return logs[i].LogIndex < logs[j].LogIndex })

	wireLogs := make([]*pb.Log, 0, len(logs))
	for _, l := range logs {
		wl, err := encodeLog(l)
		if err != nil {
			return nil, err
		}
		wireLogs = append(wireLogs, wl)
	}

	calls := make([]*pb.Call, 0, len(traces))
	for _, tr := range traces {
		if tr.Type != chain.TraceCall && tr.Type != chain.TraceCreate {
			continue
		}
		c, err := encodeCall(tr)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}

	to, err := optionalHex("to", tx.To)
	if err != nil {
		return nil, err
	}
	from, err := hexutil.DecodeHex("from", tx.From)
	if err != nil {
		return nil, err
	}
	hash, err := hexutil.DecodeHex("hash", tx.Hash)
	if err != nil {
		return nil, err
	}
	input, err := hexutil.DecodeHex("input", tx.Input)
	if err != nil {
		return nil, err
	}
	value, err := decodeBigInt("value", tx.Value)
	if err != nil {
		return nil, err
	}
	gasPrice, err := decodeBigInt("gasPrice", tx.GasPrice)
	if err != nil {
		return nil, err
	}
	v, err := hexutil.DecodeHex("v", tx.V)
	if err != nil {
		return nil, err
	}
	r, err := hexutil.DecodeHex("r", tx.R)
	if err != nil {
		return nil, err
	}
	s, err := hexutil.DecodeHex("s", tx.S)
	if err != nil {
		return nil, err
	}
	gasUsed, err := hexutil.QtyToUint64(tx.GasUsed)
	if err != nil {
		return nil, err
	}
	gasLimit, err := hexutil.QtyToUint64(tx.Gas)
	if err != nil {
		return nil, err
	}
	cumulativeGasUsed, err := hexutil.QtyToUint64(tx.CumulativeGasUsed)
	if err != nil {
		return nil, err
	}

	return &pb.TransactionTrace{
		To:       to,
		Nonce:    tx.Nonce,
		GasPrice: gasPrice,
		GasLimit: gasLimit,
		Input:    input,
		Value:    value,
		V:        v,
		R:        r,
		S:        s,
		GasUsed:  gasUsed,
		Type:     uint32(tx.Type),
		Status:   transactionStatus(calls),
		Hash:     hash,
		From:     from,
		Index:    tx.TransactionIndex,
		Calls:    calls,
		Receipt: &pb.Receipt{
			CumulativeGasUsed: cumulativeGasUsed,
			LogsBloom:         zeroBloom,
			Logs:              wireLogs,
		},
	}, nil
}

// transactionStatus derives the transaction's overall status from its
// first call, per spec §4.7 step 5.
func transactionStatus(calls []*pb.Call) pb.TransactionTraceStatus {
	if len(calls) == 0 {
		return pb.StatusUnknown
	}
	switch {
	case calls[0].StatusReverted:
		return pb.StatusReverted
	case calls[0].StatusFailed:
		return pb.StatusFailed
	default:
		return pb.StatusSucceeded
	}
}

func encodeLog(l chain.Log) (*pb.Log, error) {
	address, err := hexutil.DecodeHex("address", l.Address)
	if err != nil {
		return nil, err
	}
	data, err := hexutil.DecodeHex("data", l.Data)
	if err != nil {
		return nil, err
	}
	topics := make([][]byte, 0, len(l.Topics))
	for _, t := range l.Topics {
		tb, err := hexutil.DecodeHex("topic", t)
		if err != nil {
			return nil, err
		}
		topics = append(topics, tb)
	}
	return &pb.Log{
		Address:    address,
		Data:       data,
		Topics:     topics,
		BlockIndex: l.LogIndex,
		Index:      l.TransactionIndex,
		Ordinal:    0,
	}, nil
}

// encodeCall converts one surviving (Call or Create) trace frame, per
// spec §4.7 step 4.
func encodeCall(tr chain.Trace) (*pb.Call, error) {
	if tr.Action == nil {
		return nil, fmt.Errorf("wireblock: %s trace missing action", traceTypeName(tr.Type))
	}

	c := &pb.Call{}
	switch tr.Type {
	case chain.TraceCreate:
		c.CallType = pb.CallTypeCreate
		if tr.Action.From == nil {
			return nil, fmt.Errorf("wireblock: create trace missing action.from")
		}
		caller, err := hexutil.DecodeHex("action.from", *tr.Action.From)
		if err != nil {
			return nil, err
		}
		c.Caller = caller

		if tr.Result == nil || tr.Result.Address == nil {
			return nil, fmt.Errorf("wireblock: create trace missing result.address")
		}
		address, err := hexutil.DecodeHex("result.address", *tr.Result.Address)
		if err != nil {
			return nil, err
		}
		c.Address = address

		input, err := optionalHex("action.input", tr.Action.Input)
		if err != nil {
			return nil, err
		}
		c.Input = input
		output, err := optionalHexDefault("result.output", resultOutput(tr.Result))
		if err != nil {
			return nil, err
		}
		c.Output = output

		value, err := optionalBigInt("action.value", tr.Action.Value)
		if err != nil {
			return nil, err
		}
		c.Value = value
		c.GasLimit, err = optionalQty(tr.Action.Gas)
		if err != nil {
			return nil, err
		}
		c.GasConsumed, err = optionalQty(resultGasUsed(tr.Result))
		if err != nil {
			return nil, err
		}

	case chain.TraceCall:
		if tr.Action.Type != nil {
			c.CallType = callTypeFor(*tr.Action.Type)
		}
		if tr.Action.From == nil {
			return nil, fmt.Errorf("wireblock: call trace missing action.from")
		}
		caller, err := hexutil.DecodeHex("action.from", *tr.Action.From)
		if err != nil {
			return nil, err
		}
		c.Caller = caller

		if tr.Action.To == nil {
			return nil, fmt.Errorf("wireblock: call trace missing action.to")
		}
		address, err := hexutil.DecodeHex("action.to", *tr.Action.To)
		if err != nil {
			return nil, err
		}
		c.Address = address

		input, err := optionalHex("action.input", tr.Action.Input)
		if err != nil {
			return nil, err
		}
		c.Input = input
		output, err := optionalHexDefault("result.output", resultOutput(tr.Result))
		if err != nil {
			return nil, err
		}
		c.Output = output

		value, err := optionalBigInt("action.value", tr.Action.Value)
		if err != nil {
			return nil, err
		}
		c.Value = value
		c.GasLimit, err = optionalQty(tr.Action.Gas)
		if err != nil {
			return nil, err
		}
		gasUsed := resultGasUsed(tr.Result)
		if gasUsed == nil {
			zero := "0x0"
			gasUsed = &zero
		}
		c.GasConsumed, err = optionalQty(gasUsed)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("wireblock: unexpected trace type %d reaching encodeCall", tr.Type)
	}

	c.StatusFailed = tr.Error != nil || tr.RevertReason != nil
	c.StatusReverted = tr.RevertReason != nil
	switch {
	case tr.Error != nil:
		c.FailureReason = *tr.Error
	case tr.RevertReason != nil:
		c.FailureReason = *tr.RevertReason
	}

	return c, nil
}

func traceTypeName(t chain.TraceType) string {
	switch t {
	case chain.TraceCreate:
		return "create"
	case chain.TraceCall:
		return "call"
	case chain.TraceSuicide:
		return "suicide"
	default:
		return "reward"
	}
}

func callTypeFor(t chain.CallType) pb.CallType {
	switch t {
	case chain.CallTypeCall:
		return pb.CallTypeCall
	case chain.CallTypeCallcode:
		return pb.CallTypeCallcode
	case chain.CallTypeDelegatecall:
		return pb.CallTypeDelegate
	case chain.CallTypeStaticcall:
		return pb.CallTypeStatic
	default:
		return pb.CallTypeUnspecified
	}
}

func resultOutput(r *chain.TraceResult) *string {
	if r == nil {
		return nil
	}
	return r.Output
}

func resultGasUsed(r *chain.TraceResult) *string {
	if r == nil {
		return nil
	}
	return r.GasUsed
}

func optionalHex(label string, v *string) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return hexutil.DecodeHex(label, *v)
}

// optionalHexDefault decodes v, defaulting to the empty byte string ("0x")
// when absent, per spec §4.7's "output defaulting 0x" rule.
func optionalHexDefault(label string, v *string) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	return hexutil.DecodeHex(label, *v)
}

func optionalBigInt(label string, v *string) (*pb.BigInt, error) {
	if v == nil {
		return nil, nil
	}
	return decodeBigInt(label, *v)
}

// optionalQty decodes a hex quantity, defaulting to 0 when absent, per
// spec §4.7's "gas-used defaulting 0x0 when absent" rule.
func optionalQty(v *string) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	return hexutil.QtyToUint64(*v)
}

func decodeBigInt(label, value string) (*pb.BigInt, error) {
	b, err := hexutil.DecodeHex(label, value)
	if err != nil {
		return nil, err
	}
	return &pb.BigInt{Bytes: b}, nil
}

func encodeTimestamp(seconds uint64) *timestamppb.Timestamp {
	return &timestamppb.Timestamp{Seconds: int64(seconds), Nanos: 0}
}
