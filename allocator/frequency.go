package allocator

import "airspace-allocator/window"

type frequencyResource struct {
	FrequencyPair
	busy []window.Window
}

// frequencyAllocator hands out the first pair in pool order whose committed
// windows do not overlap the request.
type frequencyAllocator struct {
	pool []*frequencyResource
}

func newFrequencyAllocator(pool []FrequencyPair) *frequencyAllocator {
	fa := &frequencyAllocator{pool: make([]*frequencyResource, 0, len(pool))}
	for _, p := range pool {
		fa.pool = append(fa.pool, &frequencyResource{FrequencyPair: p})
	}
	return fa
}

// assign selects and commits in one step. ok is false when the pool is exhausted
// for w; the returned pair is then the Unassigned sentinel.
func (fa *frequencyAllocator) assign(w window.Window) (FrequencyPair, bool) {
	for _, r := range fa.pool {
		if window.OverlapsAny(w, r.busy) {
			continue
		}
		r.busy = append(r.busy, w)
		return r.FrequencyPair, true
	}
	return FrequencyPair{Pair: Unassigned, Chattermark: Unassigned}, false
}

// busyWindows returns the windows committed on pair, in commit order.
func (fa *frequencyAllocator) busyWindows(pair string) []window.Window {
	for _, r := range fa.pool {
		if r.Pair == pair {
			out := make([]window.Window, len(r.busy))
			copy(out, r.busy)
			return out
		}
	}
	return nil
}
