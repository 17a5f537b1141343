// Package disseminate implements the dissemination sink (§6): a bounded,
// lossy queue of recently accepted membership events, drained onto outgoing
// probe datagrams for piggybacking. Grounded on the teacher's
// queueBroadcast/drainBroadcast/logN retransmission-scaling logic in
// internal/infra/gossip/swim.go, generalized from a map-keyed-by-nodeID
// broadcast list into a standalone Buffer type implementing domain.Sink.
package disseminate

import (
	"sync"

	"github.com/meshring/swim/internal/domain"
)

// Buffer holds pending gossip events awaiting piggyback transmission. Each
// event is retransmitted up to Lambda*logN(memberCount) times before being
// evicted, mirroring the teacher's retransmission-count scaling — events
// about more interesting (recently arrived) state propagate across more
// outgoing packets in a larger cluster, without a dedicated broadcast
// channel of their own.
type Buffer struct {
	mu     sync.Mutex
	lambda int
	sizeFn func() int

	entries []entry
	left    map[domain.Node]int
}

type entry struct {
	event domain.Event
}

// New creates a Buffer. lambda is the retransmission multiplier (teacher
// default: 3); sizeFn reports the current member count, used to compute
// ceil(log2(n+1)) the same way the teacher's logN does.
func New(lambda int, sizeFn func() int) *Buffer {
	return &Buffer{lambda: lambda, sizeFn: sizeFn, left: make(map[domain.Node]int)}
}

// Push implements domain.Sink: each accepted transition replaces any
// pending entry for the same node (only the latest status about a node is
// worth piggybacking) and resets its retransmission budget.
func (b *Buffer) Push(e domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.entries {
		if existing.event.Node == e.Node {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	b.entries = append(b.entries, entry{event: e})
	b.left[e.Node] = b.lambda * b.logN()
}

// Drain returns up to max pending events for piggybacking on one outgoing
// datagram, decrementing each returned event's remaining retransmission
// budget and evicting it once exhausted. Entries are taken oldest first; an
// entry leaves the buffer only when its budget runs out or a newer Push for
// the same node replaces it, and that replacement is the only loss (§6),
// which neither Push nor Drain reports to the caller.
func (b *Buffer) Drain(max int) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return nil
	}
	if max <= 0 || max > len(b.entries) {
		max = len(b.entries)
	}

	out := make([]domain.Event, 0, max)
	remaining := b.entries[:0:0]
	for i, e := range b.entries {
		if i < max {
			out = append(out, e.event)
			b.left[e.event.Node]--
			if b.left[e.event.Node] > 0 {
				remaining = append(remaining, e)
			} else {
				delete(b.left, e.event.Node)
			}
			continue
		}
		remaining = append(remaining, e)
	}
	b.entries = remaining
	return out
}

// Len reports the number of distinct nodes with a pending piggyback entry.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// logN returns ceil(log2(n+1)) for the current member count, exactly as
// the teacher's logN scales retransmission counts with cluster size.
func (b *Buffer) logN() int {
	n := b.sizeFn() + 1
	l := 1
	for 1<<uint(l) < n {
		l++
	}
	return l
}
