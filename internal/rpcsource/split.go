package rpcsource

// blockRange is an inclusive [From, To] block range.
type blockRange struct {
	From, To uint64
}

// chunkSize is the width of one stride-fetch unit (spec §4.5's "range
// splitter").
const chunkSize = 100

// parallelism bounds how many chunks within one split are fetched
// concurrently.
const parallelism = 5

// split divides [from, to] into contiguous chunkSize-wide chunks, the last
// one possibly narrower.
func split(from, to uint64) []blockRange {
	if from > to {
		return nil
	}
	var out []blockRange
	for start := from; start <= to; start += chunkSize {
		end := start + chunkSize - 1
		if end > to {
			end = to
		}
		out = append(out, blockRange{From: start, To: end})
		if end == to {
			break
		}
	}
	return out
}
