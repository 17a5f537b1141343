package scheduler

import "time"

// timerItem is a single pending callback in a Manual scheduler, ordered by
// the virtual deadline it should fire at.
type timerItem struct {
	deadline time.Time
	seq      uint64 // tie-break for equal deadlines: FIFO arrival order
	fn       func()
}

// timerHeap is a binary min-heap over timerItem ordered by deadline, then
// by arrival sequence. Adapted from a general-purpose priority queue: the
// starvation-boost logic of that original doesn't apply to deterministic
// timer firing, so it's dropped in favor of a plain deadline/seq ordering.
type timerHeap []timerItem

func (h timerHeap) less(i, j int) bool {
	if !h[i].deadline.Equal(h[j].deadline) {
		return h[i].deadline.Before(h[j].deadline)
	}
	return h[i].seq < h[j].seq
}

func (h *timerHeap) push(item timerItem) {
	*h = append(*h, item)
	h.siftUp(len(*h) - 1)
}

// pop removes and returns the earliest-deadline item. Callers must check Len
// before calling.
func (h *timerHeap) pop() timerItem {
	old := *h
	top := old[0]
	last := len(old) - 1
	old[0] = old[last]
	*h = old[:last]
	if len(*h) > 0 {
		h.siftDown(0)
	}
	return top
}

func (h timerHeap) peek() timerItem { return h[0] }

func (h *timerHeap) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if h.less(idx, parent) {
			(*h)[idx], (*h)[parent] = (*h)[parent], (*h)[idx]
			idx = parent
		} else {
			break
		}
	}
}

func (h *timerHeap) siftDown(idx int) {
	n := len(*h)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2

		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == idx {
			break
		}
		(*h)[idx], (*h)[smallest] = (*h)[smallest], (*h)[idx]
		idx = smallest
	}
}
