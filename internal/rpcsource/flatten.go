package rpcsource

import (
	"fmt"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
)

// flattenCallTree walks a debug_traceTransaction(callTracer) call-tree root
// depth-first in pre-order, assigning each frame its trace_address (the
// path of child indices from the root) the way trace_filter/trace_transaction
// would natively report it. Used as the fallback trace source for nodes
// that don't expose the trace_filter/trace_transaction namespace.
func flattenCallTree(txIndex uint32, root callFrame) ([]chain.Trace, error) {
	var out []chain.Trace
	if err := walkCallFrame(txIndex, root, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkCallFrame(txIndex uint32, frame callFrame, address []int, out *[]chain.Trace) error {
	traceType, callType, err := mapFrameType(frame.Type)
	if err != nil {
		return err
	}

	addr := append([]int{}, address...)
	if addr == nil {
		addr = []int{}
	}

	t := chain.Trace{
		TransactionIndex: txIndex,
		Type:             traceType,
		Error:            frame.Error,
		TraceAddress:     addr,
	}

	switch traceType {
	case chain.TraceSuicide:
		t.Action = &chain.TraceAction{From: &frame.From, To: frame.To, Value: frame.Value}
	case chain.TraceCreate:
		t.Action = &chain.TraceAction{From: &frame.From, Value: frame.Value, Gas: frame.Gas, Input: &frame.Input}
		t.Result = &chain.TraceResult{Address: frame.To, GasUsed: frame.GasUsed, Output: frame.Output}
	case chain.TraceCall:
		t.Action = &chain.TraceAction{From: &frame.From, To: frame.To, Value: frame.Value, Gas: frame.Gas, Input: &frame.Input, Type: callType}
		t.Result = &chain.TraceResult{GasUsed: frame.GasUsed, Output: frame.Output}
	}

	*out = append(*out, t)

	for i, child := range frame.Calls {
		if err := walkCallFrame(txIndex, child, append(address, i), out); err != nil {
			return err
		}
	}
	return nil
}

func mapFrameType(opcode string) (chain.TraceType, *chain.CallType, error) {
	switch opcode {
	case "CALL":
		ct := chain.CallTypeCall
		return chain.TraceCall, &ct, nil
	case "CALLCODE":
		ct := chain.CallTypeCallcode
		return chain.TraceCall, &ct, nil
	case "STATICCALL":
		ct := chain.CallTypeStaticcall
		return chain.TraceCall, &ct, nil
	case "DELEGATECALL":
		ct := chain.CallTypeDelegatecall
		return chain.TraceCall, &ct, nil
	case "CREATE", "CREATE2":
		return chain.TraceCreate, nil, nil
	case "SELFDESTRUCT":
		return chain.TraceSuicide, nil, nil
	default:
		return 0, nil, fmt.Errorf("rpcsource: unsupported call-frame type %q", opcode)
	}
}
