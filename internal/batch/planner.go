package batch

// Range is one half-open interval [Start, End) over a flat item list.
type Range struct {
	Start int
	End   int
}

// Len returns the number of items the range covers.
func (r Range) Len() int {
	return r.End - r.Start
}

// PlanEqualSplit assigns work to up to `slots` parallel slots. Each slot
// receives min(perSlotCap, ceil(total/slots)) items, consumed left to
// right; slots are omitted once the total is exhausted, so every returned
// size is at least 1 and the number of slots used is the minimum needed.
// When perSlotCap binds, the assigned sum may fall short of total; callers
// pick up the remainder on their next round.
func PlanEqualSplit(total, slots, perSlotCap int) []int {
	if total <= 0 || slots <= 0 || perSlotCap <= 0 {
		return nil
	}

	perSlot := (total + slots - 1) / slots
	if perSlot > perSlotCap {
		perSlot = perSlotCap
	}

	sizes := make([]int, 0, slots)
	remaining := total
	for i := 0; i < slots && remaining > 0; i++ {
		n := perSlot
		if n > remaining {
			n = remaining
		}
		sizes = append(sizes, n)
		remaining -= n
	}
	return sizes
}

// PlanBoundaries splits totalItems into consecutive batches of
// slotsPerBatch items each. A final batch of no more than a tenth of a
// full batch (floor(slotsPerBatch/10), integer division) is folded into
// the previous batch instead of running worker-starved on its own. The
// integer threshold is 0 for slotsPerBatch below 10, so small batch sizes
// never merge.
func PlanBoundaries(totalItems, slotsPerBatch int) []Range {
	if totalItems <= 0 || slotsPerBatch <= 0 {
		return nil
	}

	totalBatches := (totalItems + slotsPerBatch - 1) / slotsPerBatch
	lastSize := totalItems - (totalBatches-1)*slotsPerBatch
	if totalBatches > 1 && lastSize <= slotsPerBatch/10 {
		totalBatches--
	}

	ranges := make([]Range, 0, totalBatches)
	for i := 0; i < totalBatches; i++ {
		start := i * slotsPerBatch
		end := start + slotsPerBatch
		if i == totalBatches-1 {
			end = totalItems
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}
