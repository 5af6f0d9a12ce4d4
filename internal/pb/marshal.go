package pb

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// appendBytesField appends a length-delimited field, omitting it entirely
// when empty (proto3's implicit-presence default-value elision).
func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendStringField(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendMessageField(b []byte, num protowire.Number, msg []byte) []byte {
	if msg == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// Marshal encodes b as sf.ethereum.type.v2.BigInt.
func (b *BigInt) Marshal() []byte {
	if b == nil {
		return nil
	}
	var out []byte
	return appendBytesField(out, 1, b.Bytes)
}

// Marshal encodes l as sf.ethereum.type.v2.Log.
func (l *Log) Marshal() []byte {
	if l == nil {
		return nil
	}
	var out []byte
	out = appendBytesField(out, 1, l.Address)
	for _, t := range l.Topics {
		out = appendBytesField(out, 2, t)
	}
	out = appendBytesField(out, 3, l.Data)
	out = appendVarintField(out, 4, uint64(l.BlockIndex))
	out = appendVarintField(out, 5, uint64(l.Index))
	out = appendVarintField(out, 6, l.Ordinal)
	return out
}

// Marshal encodes r as sf.ethereum.type.v2.Receipt.
func (r *Receipt) Marshal() []byte {
	if r == nil {
		return nil
	}
	var out []byte
	out = appendVarintField(out, 1, r.CumulativeGasUsed)
	out = appendBytesField(out, 2, r.LogsBloom)
	for _, l := range r.Logs {
		out = appendMessageField(out, 3, l.Marshal())
	}
	return out
}

// Marshal encodes c as sf.ethereum.type.v2.Call.
func (c *Call) Marshal() []byte {
	if c == nil {
		return nil
	}
	var out []byte
	out = appendVarintField(out, 1, uint64(c.Index))
	out = appendVarintField(out, 2, uint64(c.ParentIndex))
	out = appendVarintField(out, 3, uint64(c.CallType))
	out = appendBytesField(out, 4, c.Caller)
	out = appendBytesField(out, 5, c.Address)
	out = appendMessageField(out, 6, c.Value.Marshal())
	out = appendVarintField(out, 7, c.GasLimit)
	out = appendVarintField(out, 8, c.GasConsumed)
	out = appendBytesField(out, 9, c.Input)
	out = appendBytesField(out, 10, c.Output)
	out = appendBoolField(out, 11, c.StatusFailed)
	out = appendBoolField(out, 12, c.StatusReverted)
	out = appendStringField(out, 13, c.FailureReason)
	return out
}

// Marshal encodes t as sf.ethereum.type.v2.TransactionTrace.
func (t *TransactionTrace) Marshal() []byte {
	if t == nil {
		return nil
	}
	var out []byte
	out = appendBytesField(out, 1, t.To)
	out = appendVarintField(out, 2, t.Nonce)
	out = appendMessageField(out, 3, t.GasPrice.Marshal())
	out = appendVarintField(out, 4, t.GasLimit)
	out = appendBytesField(out, 5, t.Input)
	out = appendMessageField(out, 6, t.Value.Marshal())
	out = appendBytesField(out, 7, t.V)
	out = appendBytesField(out, 8, t.R)
	out = appendBytesField(out, 9, t.S)
	out = appendVarintField(out, 10, t.GasUsed)
	out = appendVarintField(out, 11, uint64(t.Type))
	out = appendVarintField(out, 12, uint64(t.Status))
	out = appendBytesField(out, 13, t.Hash)
	out = appendBytesField(out, 14, t.From)
	out = appendVarintField(out, 15, uint64(t.Index))
	for _, c := range t.Calls {
		out = appendMessageField(out, 16, c.Marshal())
	}
	out = appendMessageField(out, 17, t.Receipt.Marshal())
	return out
}

// Marshal encodes h as sf.ethereum.type.v2.BlockHeader.
func (h *BlockHeader) Marshal() []byte {
	if h == nil {
		return nil
	}
	var out []byte
	out = appendBytesField(out, 1, h.ParentHash)
	out = appendBytesField(out, 2, h.UncleHash)
	out = appendBytesField(out, 3, h.Coinbase)
	out = appendBytesField(out, 4, h.StateRoot)
	out = appendBytesField(out, 5, h.TransactionsRoot)
	out = appendBytesField(out, 6, h.ReceiptRoot)
	out = appendBytesField(out, 7, h.LogsBloom)
	out = appendMessageField(out, 8, h.Difficulty.Marshal())
	out = appendMessageField(out, 9, h.TotalDifficulty.Marshal())
	out = appendVarintField(out, 10, h.Number)
	out = appendVarintField(out, 11, h.GasLimit)
	out = appendVarintField(out, 12, h.GasUsed)
	if h.Timestamp != nil {
		ts, err := proto.Marshal(h.Timestamp)
		if err == nil {
			out = appendMessageField(out, 13, ts)
		}
	}
	out = appendBytesField(out, 14, h.ExtraData)
	out = appendBytesField(out, 15, h.MixHash)
	out = appendVarintField(out, 16, h.Nonce)
	out = appendBytesField(out, 17, h.Hash)
	out = appendMessageField(out, 18, h.BaseFeePerGas.Marshal())
	return out
}

// Marshal encodes blk as sf.ethereum.type.v2.Block.
func (blk *Block) Marshal() ([]byte, error) {
	var out []byte
	out = appendVarintField(out, 1, uint64(blk.Ver))
	out = appendBytesField(out, 2, blk.Hash)
	out = appendVarintField(out, 3, blk.Number)
	out = appendVarintField(out, 4, blk.Size)
	out = appendMessageField(out, 5, blk.Header.Marshal())
	for _, tt := range blk.TransactionTraces {
		out = appendMessageField(out, 10, tt.Marshal())
	}
	return out, nil
}

// AsAny packs blk as the google.protobuf.Any the Firehose wire format
// carries in Response.block / SingleBlockResponse.block.
func (blk *Block) AsAny() (*anypb.Any, error) {
	body, err := blk.Marshal()
	if err != nil {
		return nil, err
	}
	return &anypb.Any{TypeUrl: BlockTypeURL, Value: body}, nil
}

// Marshal encodes req as sf.firehose.v2.Request.
func (req *Request) Marshal() ([]byte, error) {
	var out []byte
	out = protowire.AppendTag(out, 1, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(zigzag(req.StartBlockNum)))
	out = appendStringField(out, 2, req.Cursor)
	out = appendVarintField(out, 3, req.StopBlockNum)
	out = appendBoolField(out, 4, req.FinalBlocksOnly)
	for _, a := range req.Transforms {
		body, err := proto.Marshal(a)
		if err != nil {
			return nil, err
		}
		out = appendMessageField(out, 5, body)
	}
	return out, nil
}

// Marshal encodes res as sf.firehose.v2.Response.
func (res *Response) Marshal() ([]byte, error) {
	var out []byte
	if res.Block != nil {
		body, err := proto.Marshal(res.Block)
		if err != nil {
			return nil, err
		}
		out = appendMessageField(out, 1, body)
	}
	out = appendVarintField(out, 2, uint64(res.Step))
	out = appendStringField(out, 3, res.Cursor)
	return out, nil
}

// Marshal encodes res as sf.firehose.v2.SingleBlockResponse.
func (res *SingleBlockResponse) Marshal() ([]byte, error) {
	var out []byte
	if res.Block != nil {
		body, err := proto.Marshal(res.Block)
		if err != nil {
			return nil, err
		}
		out = appendMessageField(out, 1, body)
	}
	return out, nil
}

// Marshal encodes req as sf.firehose.v2.SingleBlockRequest.
func (req *SingleBlockRequest) Marshal() ([]byte, error) {
	var out []byte
	switch {
	case req.BlockNumber != nil:
		inner := appendVarintField(nil, 1, *req.BlockNumber)
		out = appendMessageField(out, 1, inner)
	case req.BlockHash != nil:
		var inner []byte
		inner = appendStringField(inner, 1, *req.BlockHash)
		if req.BlockHashNumber != nil {
			inner = appendVarintField(inner, 2, *req.BlockHashNumber)
		}
		out = appendMessageField(out, 2, inner)
	case req.Cursor != nil:
		out = appendStringField(out, 3, *req.Cursor)
	}
	return out, nil
}

// Marshal encodes f as sf.ethereum.transform.v1.LogFilter.
func (f *LogFilter) Marshal() []byte {
	var out []byte
	for _, a := range f.Addresses {
		out = appendBytesField(out, 1, a)
	}
	for _, s := range f.EventSignatures {
		out = appendBytesField(out, 2, s)
	}
	return out
}

// Marshal encodes f as sf.ethereum.transform.v1.CallToFilter.
func (f *CallToFilter) Marshal() []byte {
	var out []byte
	for _, a := range f.Addresses {
		out = appendBytesField(out, 1, a)
	}
	for _, s := range f.Signatures {
		out = appendBytesField(out, 2, s)
	}
	return out
}

// Marshal encodes f as sf.ethereum.transform.v1.CombinedFilter.
func (f *CombinedFilter) Marshal() ([]byte, error) {
	var out []byte
	for i := range f.LogFilters {
		out = appendMessageField(out, 1, f.LogFilters[i].Marshal())
	}
	for i := range f.CallFilters {
		out = appendMessageField(out, 2, f.CallFilters[i].Marshal())
	}
	out = appendBoolField(out, 3, f.SendAllBlockHeaders)
	return out, nil
}

// zigzag applies the sint64 zigzag transform protowire expects for signed
// varint fields.
func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func unzigzag(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
