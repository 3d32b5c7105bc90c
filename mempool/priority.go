package mempool

// feeRateHeap is a min-heap over *Entry ordered by ascending fee-rate
// (ties broken oldest-first), used by evictOverCapLocked to find the
// next eviction victim in O(log n) per spec.md §4.6 ("evict lowest
// fee-rate first; on tie, oldest first").
type feeRateHeap []*Entry

func (h feeRateHeap) Len() int { return len(h) }

func (h feeRateHeap) Less(i, j int) bool {
	if h[i].FeeRate != h[j].FeeRate {
		return h[i].FeeRate < h[j].FeeRate
	}
	return h[i].AddedAt.Before(h[j].AddedAt)
}

func (h feeRateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *feeRateHeap) Push(x interface{}) {
	entry := x.(*Entry)
	entry.heapIndex = len(*h)
	*h = append(*h, entry)
}

func (h *feeRateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}
