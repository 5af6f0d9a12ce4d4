// Package chain holds the canonical, source-independent block/transaction/
// log/trace records the archive and RPC adapters convert into, and the
// filter request record the orchestrator builds from a client's transforms.
package chain

// HashAndHeight is a value pair identifying a block by height and hash.
// Equality is component-wise.
type HashAndHeight struct {
	Hash   string
	Height uint64
}

// BlockHeader mirrors an Ethereum block header. Number, Size and Timestamp
// are already numeric (the source adapters decode them); the other
// hex-quantity fields are kept as strings until the wire encoder
// (component 8) turns them into big-endian bytes or uint64.
type BlockHeader struct {
	Number           uint64
	Hash             string
	ParentHash       string
	Size             uint64
	UnclesHash       string // sha3Uncles
	Miner            string
	StateRoot        string
	TransactionsRoot string
	ReceiptsRoot     string
	LogsBloom        string
	Difficulty       string
	TotalDifficulty  string
	GasLimit         string
	GasUsed          string
	Timestamp        uint64
	ExtraData        string
	MixHash          string
	Nonce            string
	BaseFeePerGas    *string
}

// Transaction is a single transaction within a block.
type Transaction struct {
	TransactionIndex     uint32
	Hash                 string
	Nonce                uint64
	From                 string
	To                   *string
	Input                string
	Value                string
	Gas                  string
	GasPrice             string
	MaxFeePerGas         *string
	MaxPriorityFeePerGas *string
	V                    string
	R                    string
	S                    string
	YParity              *uint8
	GasUsed              string
	CumulativeGasUsed    string
	EffectiveGasPrice    string
	Type                 int32
	Status               int32
}

// Log is a single event log emitted by a transaction.
type Log struct {
	Address          string
	Data             string
	Topics           []string
	LogIndex         uint32
	TransactionIndex uint32
}

// TraceType tags the kind of execution frame a Trace describes.
type TraceType int

const (
	TraceCreate TraceType = iota
	TraceCall
	TraceSuicide
	TraceReward
)

// CallType further tags a TraceCall frame with the EVM opcode that created it.
type CallType int

const (
	CallTypeCall CallType = iota
	CallTypeCallcode
	CallTypeDelegatecall
	CallTypeStaticcall
)

// TraceAction is the "what was requested" half of a trace frame.
type TraceAction struct {
	From  *string
	To    *string
	Value *string
	Gas   *string
	Input *string
	Type  *CallType
}

// TraceResult is the "what happened" half of a trace frame, absent on
// failure.
type TraceResult struct {
	GasUsed *string
	Address *string
	Output  *string
}

// Trace is a single call, creation, self-destruct, or block-reward frame
// within a transaction's execution.
type Trace struct {
	TransactionIndex uint32
	Type             TraceType
	Error            *string
	RevertReason     *string
	Action           *TraceAction
	Result           *TraceResult
	// TraceAddress locates this frame within the call tree, outermost call
	// first; the root call has an empty TraceAddress. The RPC adapter
	// populates this from trace_filter/trace_transaction's traceAddress, or
	// from the debug_traceTransaction call tree when it falls back to it;
	// the archive adapter leaves it nil since the archive format has no
	// equivalent.
	TraceAddress []int
}

// Block is a header plus its owned logs, transactions, and traces. All
// children reference their parent by transaction index.
type Block struct {
	Header       BlockHeader
	Logs         []Log
	Transactions []Transaction
	Traces       []Trace
}

// AsHashAndHeight extracts the (hash, height) identity of a block.
func (b *Block) AsHashAndHeight() HashAndHeight {
	return HashAndHeight{Hash: b.Header.Hash, Height: b.Header.Number}
}

// LogRequest selects logs by contract address and topic0 (event signature).
// An empty Addresses or Topic0 means "any".
type LogRequest struct {
	Addresses []string
	Topic0    []string
}

// TxRequest selects transactions by callee address and 4-byte selector.
type TxRequest struct {
	Addresses []string
	Sighash   []string
}

// TraceRequest selects call traces the same way TxRequest selects
// transactions. The RPC adapter only ever has to satisfy LogRequest and
// TxRequest-shaped filters (spec §3's "call filters"); TraceRequest exists
// so adapters that can push trace-level filters upstream (the portal
// source) have somewhere to put it.
type TraceRequest struct {
	Addresses []string
	Sighash   []string
}

// DataRequest is the canonical filter the orchestrator builds from a
// client's transform envelopes and hands to a DataSource.
type DataRequest struct {
	From   uint64
	To     *uint64
	Logs   []LogRequest
	Calls  []TxRequest
	Traces []TraceRequest
}

// HasLogFilters reports whether any log filter was requested.
func (r *DataRequest) HasLogFilters() bool { return len(r.Logs) > 0 }

// HasCallFilters reports whether any call filter was requested.
func (r *DataRequest) HasCallFilters() bool { return len(r.Calls) > 0 }

// HotUpdate is the result of one fork-navigator move: the new blocks to
// apply atop BaseHead, and the advancing finality marker.
type HotUpdate struct {
	Blocks        []Block
	BaseHead      HashAndHeight
	FinalizedHead HashAndHeight
}
