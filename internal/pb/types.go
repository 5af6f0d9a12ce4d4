// Package pb holds the hand-maintained Go types for the Firehose v2 wire
// protocol described in proto/*.proto (component 8's encode target and
// section 6.1's gRPC surface). A real build pipeline would run
// `buf generate` / `protoc --go_out` against those files; since this
// exercise never invokes the Go or protobuf toolchain, the generated
// shapes are authored directly here instead, with Marshal/Unmarshal pairs
// implemented against google.golang.org/protobuf/encoding/protowire (the
// same low-level wire primitives protoc-gen-go's output calls into) so the
// bytes on the wire match what the .proto files describe field-for-field.
// See DESIGN.md for why this package is hand-authored rather than
// toolchain-generated.
package pb

import (
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ForkStep mirrors sf.firehose.v2.ForkStep.
type ForkStep int32

const (
	StepUnknown ForkStep = 0
	StepNew     ForkStep = 1
	StepUndo    ForkStep = 2
)

// Request is sf.firehose.v2.Request.
type Request struct {
	StartBlockNum   int64
	Cursor          string
	StopBlockNum    uint64
	FinalBlocksOnly bool
	Transforms      []*anypb.Any
}

// Response is sf.firehose.v2.Response.
type Response struct {
	Block  *anypb.Any
	Step   ForkStep
	Cursor string
}

// SingleBlockRequest is sf.firehose.v2.SingleBlockRequest; exactly one of
// the Reference fields is set, enforced at construction by the caller
// rather than by a Go-level oneof wrapper.
type SingleBlockRequest struct {
	BlockNumber        *uint64
	BlockHash          *string // paired with BlockHashNumber
	BlockHashNumber    *uint64
	Cursor             *string
}

// SingleBlockResponse is sf.firehose.v2.SingleBlockResponse.
type SingleBlockResponse struct {
	Block *anypb.Any
}

// CombinedFilter is sf.ethereum.transform.v1.CombinedFilter, the only
// transform envelope this bridge understands.
type CombinedFilter struct {
	LogFilters          []LogFilter
	CallFilters         []CallToFilter
	SendAllBlockHeaders bool
}

// LogFilter is sf.ethereum.transform.v1.LogFilter.
type LogFilter struct {
	Addresses       [][]byte
	EventSignatures [][]byte
}

// CallToFilter is sf.ethereum.transform.v1.CallToFilter.
type CallToFilter struct {
	Addresses  [][]byte
	Signatures [][]byte
}

// CombinedFilterTypeURL is the type_url CombinedFilter transforms are
// packed under in Request.transforms.
const CombinedFilterTypeURL = "type.googleapis.com/sf.ethereum.transform.v1.CombinedFilter"

// BlockTypeURL is the type_url the wire Block is packed under in
// Response.block / SingleBlockResponse.block.
const BlockTypeURL = "type.googleapis.com/sf.ethereum.type.v2.Block"

// CallType mirrors sf.ethereum.type.v2.CallType.
type CallType int32

const (
	CallTypeUnspecified CallType = 0
	CallTypeCall        CallType = 1
	CallTypeCallcode    CallType = 2
	CallTypeDelegate    CallType = 3
	CallTypeStatic      CallType = 4
	CallTypeCreate      CallType = 5
)

// TransactionTraceStatus mirrors sf.ethereum.type.v2.TransactionTraceStatus.
type TransactionTraceStatus int32

const (
	StatusUnknown   TransactionTraceStatus = 0
	StatusSucceeded TransactionTraceStatus = 1
	StatusFailed    TransactionTraceStatus = 2
	StatusReverted  TransactionTraceStatus = 3
)

// BigInt is sf.ethereum.type.v2.BigInt: an arbitrary-width integer as raw
// big-endian bytes, never a decimal string (spec §9's "big integers" rule).
type BigInt struct {
	Bytes []byte
}

// Block is sf.ethereum.type.v2.Block.
type Block struct {
	Ver               uint32
	Hash              []byte
	Number            uint64
	Size              uint64
	Header            *BlockHeader
	TransactionTraces []*TransactionTrace
}

// BlockHeader is sf.ethereum.type.v2.BlockHeader.
type BlockHeader struct {
	ParentHash       []byte
	UncleHash        []byte
	Coinbase         []byte
	StateRoot        []byte
	TransactionsRoot []byte
	ReceiptRoot      []byte
	LogsBloom        []byte
	Difficulty       *BigInt
	TotalDifficulty  *BigInt
	Number           uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        *timestamppb.Timestamp
	ExtraData        []byte
	MixHash          []byte
	Nonce            uint64
	Hash             []byte
	BaseFeePerGas    *BigInt
}

// TransactionTrace is sf.ethereum.type.v2.TransactionTrace.
type TransactionTrace struct {
	To                []byte
	Nonce             uint64
	GasPrice          *BigInt
	GasLimit          uint64
	Input             []byte
	Value             *BigInt
	V                 []byte
	R                 []byte
	S                 []byte
	GasUsed           uint64
	Type              uint32
	Status            TransactionTraceStatus
	Hash              []byte
	From              []byte
	Index             uint32
	Calls             []*Call
	Receipt           *Receipt
}

// Call is sf.ethereum.type.v2.Call: one flattened call-tree frame.
type Call struct {
	Index          uint32
	ParentIndex    uint32
	CallType       CallType
	Caller         []byte
	Address        []byte
	Value          *BigInt
	GasLimit       uint64
	GasConsumed    uint64
	Input          []byte
	Output         []byte
	StatusFailed   bool
	StatusReverted bool
	FailureReason  string
}

// Receipt is sf.ethereum.type.v2.Receipt, synthesized by the encoder
// (spec §4.7 step 6) rather than taken verbatim from any upstream.
type Receipt struct {
	CumulativeGasUsed uint64
	LogsBloom         []byte
	Logs              []*Log
}

// Log is sf.ethereum.type.v2.Log.
type Log struct {
	Address    []byte
	Topics     [][]byte
	Data       []byte
	BlockIndex uint32
	Index      uint32
	Ordinal    uint64
}
