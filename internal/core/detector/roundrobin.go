package detector

import "github.com/meshring/swim/internal/domain"

// roundRobin hands out probe targets in shuffled order, refilling from a
// fresh membership snapshot whenever it runs dry (§4.2 "round-robin target
// selection"). Grounded on the SelectionList/Next idiom of the reference
// detector, generalized to rebuild via Fisher-Yates over a caller-supplied
// snapshot instead of an internal linked structure — "a simple ordered
// buffer ... repopulated by snapshotting MT members and applying a uniform
// shuffle. Do not maintain an ever-growing structure."
type roundRobin struct {
	queue []domain.Member
}

// next pops the next candidate, excluding exclude, refilling from members
// if the queue is empty. It returns ok=false only when no eligible
// candidate exists anywhere in members.
func (r *roundRobin) next(members []domain.Member, exclude domain.Node, rng domain.RNG) (domain.Member, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		for len(r.queue) > 0 {
			m := r.queue[0]
			r.queue = r.queue[1:]
			if m.Node != exclude {
				return m, true
			}
		}
		r.refill(members, exclude, rng)
		if len(r.queue) == 0 {
			return domain.Member{}, false
		}
	}
	return domain.Member{}, false
}

func (r *roundRobin) refill(members []domain.Member, exclude domain.Node, rng domain.RNG) {
	r.queue = r.queue[:0]
	for _, m := range members {
		if m.Node != exclude {
			r.queue = append(r.queue, m)
		}
	}
	rng.Shuffle(len(r.queue), func(i, j int) { r.queue[i], r.queue[j] = r.queue[j], r.queue[i] })
}

// sampleHelpers draws up to k distinct candidates from members, excluding
// exclude and local, in random order — used for indirect-ping fan-out
// where the caller needs a one-shot sample rather than a persistent cursor.
//
// Unlike refill's full Shuffle (the cursor is drained to the end, so every
// position needs a fair order), a one-shot sample of k out of n only needs
// the first k positions settled: a partial Fisher-Yates that swaps in k
// random picks via Intn, rather than shuffling the whole pool just to
// throw away everything past index k.
func sampleHelpers(members []domain.Member, exclude, local domain.Node, k int, rng domain.RNG) []domain.Node {
	pool := make([]domain.Node, 0, len(members))
	for _, m := range members {
		if m.Node != exclude && m.Node != local {
			pool = append(pool, m.Node)
		}
	}
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
