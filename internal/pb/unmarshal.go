package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// fieldVisitor is called by consumeFields once per field encountered, with
// b starting at the field's value. It returns the number of bytes of b it
// consumed, or a negative count for a field it ignores, in which case
// consumeFields skips the value itself.
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error)

func consumeFields(data []byte, visit fieldVisitor) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("pb: invalid tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		consumed, err := visit(num, typ, data)
		if err != nil {
			return err
		}
		if consumed < 0 {
			// The visitor didn't care about this field; skip its value.
			consumed = protowire.ConsumeFieldValue(num, typ, data)
			if consumed < 0 {
				return fmt.Errorf("pb: invalid field value for %d: %w", num, protowire.ParseError(consumed))
			}
		}
		data = data[consumed:]
	}
	return nil
}

// Unmarshal decodes data as sf.firehose.v2.Request.
func (req *Request) Unmarshal(data []byte) error {
	*req = Request{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: Request.start_block_num: %w", protowire.ParseError(n))
			}
			req.StartBlockNum = unzigzag(v)
			return n, nil
		case 2:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: Request.cursor: %w", protowire.ParseError(n))
			}
			req.Cursor = v
			return n, nil
		case 3:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: Request.stop_block_num: %w", protowire.ParseError(n))
			}
			req.StopBlockNum = v
			return n, nil
		case 4:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: Request.final_blocks_only: %w", protowire.ParseError(n))
			}
			req.FinalBlocksOnly = v != 0
			return n, nil
		case 5:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: Request.transforms: %w", protowire.ParseError(n))
			}
			any := &anypb.Any{}
			if err := proto.Unmarshal(msg, any); err != nil {
				return -1, fmt.Errorf("pb: Request.transforms: %w", err)
			}
			req.Transforms = append(req.Transforms, any)
			return n, nil
		}
		return -1, nil
	})
}

// Unmarshal decodes data as sf.firehose.v2.SingleBlockRequest.
func (req *SingleBlockRequest) Unmarshal(data []byte) error {
	*req = SingleBlockRequest{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: SingleBlockRequest.block_number: %w", protowire.ParseError(n))
			}
			return n, consumeFields(inner, func(inum protowire.Number, _ protowire.Type, ib []byte) (int, error) {
				if inum == 1 {
					v, in := protowire.ConsumeVarint(ib)
					if in < 0 {
						return -1, fmt.Errorf("pb: BlockNumber.num: %w", protowire.ParseError(in))
					}
					req.BlockNumber = &v
					return in, nil
				}
				return -1, nil
			})
		case 2:
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: SingleBlockRequest.block_hash_and_number: %w", protowire.ParseError(n))
			}
			return n, consumeFields(inner, func(inum protowire.Number, _ protowire.Type, ib []byte) (int, error) {
				switch inum {
				case 1:
					v, in := protowire.ConsumeString(ib)
					if in < 0 {
						return -1, fmt.Errorf("pb: BlockHashAndNumber.hash: %w", protowire.ParseError(in))
					}
					req.BlockHash = &v
					return in, nil
				case 2:
					v, in := protowire.ConsumeVarint(ib)
					if in < 0 {
						return -1, fmt.Errorf("pb: BlockHashAndNumber.num: %w", protowire.ParseError(in))
					}
					req.BlockHashNumber = &v
					return in, nil
				}
				return -1, nil
			})
		case 3:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: SingleBlockRequest.cursor: %w", protowire.ParseError(n))
			}
			req.Cursor = &v
			return n, nil
		}
		return -1, nil
	})
}

// Unmarshal decodes data as sf.ethereum.transform.v1.CombinedFilter.
func (f *CombinedFilter) Unmarshal(data []byte) error {
	*f = CombinedFilter{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: CombinedFilter.log_filters: %w", protowire.ParseError(n))
			}
			var lf LogFilter
			if err := lf.Unmarshal(inner); err != nil {
				return -1, err
			}
			f.LogFilters = append(f.LogFilters, lf)
			return n, nil
		case 2:
			inner, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: CombinedFilter.call_filters: %w", protowire.ParseError(n))
			}
			var cf CallToFilter
			if err := cf.Unmarshal(inner); err != nil {
				return -1, err
			}
			f.CallFilters = append(f.CallFilters, cf)
			return n, nil
		case 3:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: CombinedFilter.send_all_block_headers: %w", protowire.ParseError(n))
			}
			f.SendAllBlockHeaders = v != 0
			return n, nil
		}
		return -1, nil
	})
}

// Unmarshal decodes data as sf.ethereum.transform.v1.LogFilter.
func (f *LogFilter) Unmarshal(data []byte) error {
	*f = LogFilter{}
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: LogFilter.addresses: %w", protowire.ParseError(n))
			}
			f.Addresses = append(f.Addresses, append([]byte{}, v...))
			return n, nil
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: LogFilter.event_signatures: %w", protowire.ParseError(n))
			}
			f.EventSignatures = append(f.EventSignatures, append([]byte{}, v...))
			return n, nil
		}
		return -1, nil
	})
}

// Unmarshal decodes data as sf.ethereum.transform.v1.CallToFilter.
func (f *CallToFilter) Unmarshal(data []byte) error {
	*f = CallToFilter{}
	return consumeFields(data, func(num protowire.Number, _ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: CallToFilter.addresses: %w", protowire.ParseError(n))
			}
			f.Addresses = append(f.Addresses, append([]byte{}, v...))
			return n, nil
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return -1, fmt.Errorf("pb: CallToFilter.signatures: %w", protowire.ParseError(n))
			}
			f.Signatures = append(f.Signatures, append([]byte{}, v...))
			return n, nil
		}
		return -1, nil
	})
}
