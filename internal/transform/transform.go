// Package transform compiles a Firehose Request's transform envelopes
// (packed google.protobuf.Any values carrying a CombinedFilter) into the
// canonical chain.DataRequest the orchestrator and data sources consume.
package transform

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/pb"
)

// Compile decodes every CombinedFilter among transforms and merges them
// into a DataRequest's Logs/Calls filters. Transforms under any other
// type_url are ignored, matching spec §4.2's "unknown transforms are
// ignored" rule. The returned request's From/To are left zero; the
// orchestrator fills those in from the request's start/stop bounds.
func Compile(transforms []*anypb.Any) (chain.DataRequest, error) {
	var req chain.DataRequest
	for _, any := range transforms {
		if any.GetTypeUrl() != pb.CombinedFilterTypeURL {
			continue
		}
		var cf pb.CombinedFilter
		if err := cf.Unmarshal(any.GetValue()); err != nil {
			return chain.DataRequest{}, fmt.Errorf("transform: decode CombinedFilter: %w", err)
		}
		for _, lf := range cf.LogFilters {
			req.Logs = append(req.Logs, chain.LogRequest{
				Addresses: toHexStrings(lf.Addresses),
				Topic0:    toHexStrings(lf.EventSignatures),
			})
		}
		for _, cfil := range cf.CallFilters {
			req.Calls = append(req.Calls, chain.TxRequest{
				Addresses: toHexStrings(cfil.Addresses),
				Sighash:   toHexStrings(cfil.Signatures),
			})
		}
	}
	return req, nil
}

func toHexStrings(raw [][]byte) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = "0x" + common.Bytes2Hex(b)
	}
	return out
}
