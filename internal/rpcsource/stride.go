package rpcsource

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sqd-archives/firehose-bridge/internal/chain"
	"github.com/sqd-archives/firehose-bridge/internal/datasource"
	"github.com/sqd-archives/firehose-bridge/internal/hexutil"
)

func hexNumber(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// getStride fetches and assembles every canonical block in r, applying
// req's log and call filters, per spec §4.5.
func getStride(ctx context.Context, c *Client, r blockRange, req chain.DataRequest) ([]chain.Block, error) {
	// Step 1: fetch every block-with-txs in the range in parallel.
	blocks := make([]*rpcBlock, r.To-r.From+1)
	g, gctx := errgroup.WithContext(ctx)
	for i := r.From; i <= r.To; i++ {
		i := i
		g.Go(func() error {
			b, err := c.getBlockByNumber(gctx, hexNumber(i))
			if err != nil {
				return fmt.Errorf("fetch block %d: %w", i, err)
			}
			blocks[i-r.From] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Step 2: eth_getLogs once per log filter with a merged predicate.
	logsByBlock := map[uint64][]chain.Log{}
	for _, lf := range req.Logs {
		raw, err := c.getLogs(ctx, logFilter{
			FromBlock: hexNumber(r.From),
			ToBlock:   hexNumber(r.To),
			Address:   lf.Addresses,
			Topics:    topicsOf(lf.Topic0),
		})
		if err != nil {
			return nil, fmt.Errorf("get logs: %w", err)
		}
		for _, rl := range raw {
			blockNum, err := hexutil.QtyToUint64(rl.BlockNumber)
			if err != nil {
				return nil, fmt.Errorf("log block number: %w", err)
			}
			l, err := toLog(rl)
			if err != nil {
				return nil, err
			}
			logsByBlock[blockNum] = append(logsByBlock[blockNum], l)
		}
	}

	// Step 3: trace_filter with the union of call-filter addresses,
	// client-side filtered by (to, sighash).
	var matchedTraces []rpcTrace
	if req.HasCallFilters() {
		var toAddrs []string
		for _, cf := range req.Calls {
			toAddrs = append(toAddrs, cf.Addresses...)
		}
		raw, err := c.traceFilter(ctx, traceFilterParams{
			FromBlock: hexNumber(r.From),
			ToBlock:   hexNumber(r.To),
			ToAddress: toAddrs,
		})
		if err != nil {
			return nil, fmt.Errorf("trace_filter: %w", err)
		}
		for _, tr := range raw {
			if matchesCallFilters(tr, req.Calls) {
				matchedTraces = append(matchedTraces, tr)
			}
		}
		sort.Slice(matchedTraces, func(i, j int) bool {
			if matchedTraces[i].TransactionHash != matchedTraces[j].TransactionHash {
				return matchedTraces[i].TransactionHash < matchedTraces[j].TransactionHash
			}
			return compareTraceAddress(matchedTraces[i].TraceAddress, matchedTraces[j].TraceAddress)
		})
	}

	// Step 4: collect referenced tx hashes and detect root-trace presence.
	hasRoot := map[string]bool{}
	referenced := map[string]bool{}
	tracesByTxHash := map[string][]rpcTrace{}
	for _, tr := range matchedTraces {
		referenced[tr.TransactionHash] = true
		tracesByTxHash[tr.TransactionHash] = append(tracesByTxHash[tr.TransactionHash], tr)
		if len(tr.TraceAddress) == 0 {
			hasRoot[tr.TransactionHash] = true
		}
	}
	// Logs reference their owning transaction through the owning block's
	// transaction list; add those hashes once blocks are known, below.
	for _, b := range blocks {
		if b == nil {
			continue
		}
		blockNum, _ := hexutil.QtyToUint64(b.Number)
		if _, ok := logsByBlock[blockNum]; !ok {
			continue
		}
		for _, tx := range b.Transactions {
			txIdx, err := hexutil.QtyToUint64(tx.TransactionIndex)
			if err != nil {
				return nil, fmt.Errorf("transaction index: %w", err)
			}
			for _, l := range logsByBlock[blockNum] {
				if uint64(l.TransactionIndex) == txIdx {
					referenced[tx.Hash] = true
					break
				}
			}
		}
	}

	// Step 5: fetch receipts for every referenced tx; for those without a
	// root trace, fetch the full call tree via trace_transaction.
	receiptsByHash := map[string]rpcReceipt{}
	tracesFinal := map[string][]chain.Trace{}
	for hash := range referenced {
		hash := hash
		receipt, err := c.getTransactionReceipt(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("receipt for %s: %w", hash, err)
		}
		if receipt == nil {
			return nil, fmt.Errorf("%w: no receipt for %s", datasource.ErrConsistency, hash)
		}
		receiptsByHash[hash] = *receipt

		txIndex, err := hexutil.QtyToUint64(receipt.TransactionIndex)
		if err != nil {
			return nil, fmt.Errorf("receipt transaction index: %w", err)
		}

		if hasRoot[hash] {
			for _, tr := range tracesByTxHash[hash] {
				tracesFinal[hash] = append(tracesFinal[hash], toTrace(uint32(txIndex), tr))
			}
			continue
		}

		full, err := fetchFullTraceTree(ctx, c, hash, uint32(txIndex))
		if err != nil {
			return nil, err
		}
		tracesFinal[hash] = full
	}

	// Step 6 & 7: partition logs/transactions/traces by block, sort, and
	// project each raw block into a canonical block.
	out := make([]chain.Block, 0, len(blocks))
	for _, b := range blocks {
		if b == nil {
			continue
		}
		header, err := toHeader(*b)
		if err != nil {
			return nil, err
		}

		block := chain.Block{Header: header}
		block.Logs = append(block.Logs, logsByBlock[header.Number]...)
		sort.Slice(block.Logs, func(i, j int) bool { return block.Logs[i].LogIndex < block.Logs[j].LogIndex })

		for _, tx := range b.Transactions {
			if !referenced[tx.Hash] {
				continue
			}
			receipt := receiptsByHash[tx.Hash]
			canonicalTx, err := toTransaction(tx, receipt)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", tx.Hash, err)
			}
			block.Transactions = append(block.Transactions, canonicalTx)
			block.Traces = append(block.Traces, tracesFinal[tx.Hash]...)
		}
		sort.Slice(block.Transactions, func(i, j int) bool {
			return block.Transactions[i].TransactionIndex < block.Transactions[j].TransactionIndex
		})

		out = append(out, block)
	}

	return out, nil
}

func fetchFullTraceTree(ctx context.Context, c *Client, hash string, txIndex uint32) ([]chain.Trace, error) {
	raw, err := c.traceTransaction(ctx, hash)
	if err == nil {
		out := make([]chain.Trace, 0, len(raw))
		for _, tr := range raw {
			out = append(out, toTrace(txIndex, tr))
		}
		return out, nil
	}

	// The node may not expose the trace_filter/trace_transaction namespace
	// (plain geth); fall back to debug_traceTransaction's callTracer and
	// flatten its tree into the same shape.
	frame, dErr := c.debugTraceTransaction(ctx, hash)
	if dErr != nil {
		return nil, fmt.Errorf("trace_transaction(%s): %w (callTracer fallback also failed: %v)", hash, err, dErr)
	}
	if frame == nil {
		return nil, fmt.Errorf("%w: no call trace for %s", datasource.ErrConsistency, hash)
	}
	return flattenCallTree(txIndex, *frame)
}

func matchesCallFilters(tr rpcTrace, filters []chain.TxRequest) bool {
	if tr.Action == nil || tr.Action.To == nil || tr.Action.Input == nil {
		return false
	}
	sel, ok := sighash(*tr.Action.Input)
	if !ok {
		return false
	}
	for _, f := range filters {
		if !addressMatches(*tr.Action.To, f.Addresses) {
			continue
		}
		if !sighashMatches(sel, f.Sighash) {
			continue
		}
		return true
	}
	return false
}

func addressMatches(addr string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, a := range set {
		if a == addr {
			return true
		}
	}
	return false
}

func sighashMatches(sel string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == sel {
			return true
		}
	}
	return false
}

func compareTraceAddress(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func topicsOf(topic0 []string) [][]string {
	if len(topic0) == 0 {
		return nil
	}
	return [][]string{topic0}
}
