package allocator

import "airspace-allocator/window"

// penalizedArea loses one slot for every minute covered by a transit route.
const penalizedArea = Area4

type airspaceAllocator struct {
	rules    map[string]AirspaceRule
	capacity int
	transit  *window.Set
	usage    map[Area]map[window.Minute]int
}

func newAirspaceAllocator(rules map[string]AirspaceRule, capacity int, transit *window.Set) *airspaceAllocator {
	aa := &airspaceAllocator{
		rules:    rules,
		capacity: capacity,
		transit:  transit,
		usage:    make(map[Area]map[window.Minute]int, len(Areas)),
	}
	for _, a := range Areas {
		aa.usage[a] = make(map[window.Minute]int)
	}
	return aa
}

// airspaceOutcome is the result of one try-preferred-then-fallback decision.
type airspaceOutcome struct {
	area         Area
	knownPrefix  bool
	usedFallback bool
}

func (aa *airspaceAllocator) penalty(a Area, t window.Minute) int {
	if a == penalizedArea && aa.transit.Has(t) {
		return 1
	}
	return 0
}

// fits checks every tick of w before anything is written.
func (aa *airspaceAllocator) fits(a Area, w window.Window, slots int) bool {
	u := aa.usage[a]
	if u == nil {
		return false
	}
	for t := w.Start; t < w.End; t++ {
		if u[t]+slots+aa.penalty(a, t) > aa.capacity {
			return false
		}
	}
	return true
}

func (aa *airspaceAllocator) commit(a Area, w window.Window, slots int) {
	u := aa.usage[a]
	for t := w.Start; t < w.End; t++ {
		u[t] += slots
	}
}

func (aa *airspaceAllocator) assign(prefix string, w window.Window) airspaceOutcome {
	rule, ok := aa.rules[prefix]
	if !ok {
		return airspaceOutcome{}
	}
	preferred := rule.PreferredArea
	fallback := preferred.Fallback()

	if aa.fits(preferred, w, rule.SlotsNeeded) {
		aa.commit(preferred, w, rule.SlotsNeeded)
		return airspaceOutcome{area: preferred, knownPrefix: true}
	}
	if aa.fits(fallback, w, rule.SlotsNeeded) {
		aa.commit(fallback, w, rule.SlotsNeeded)
		return airspaceOutcome{area: fallback, knownPrefix: true, usedFallback: true}
	}
	return airspaceOutcome{knownPrefix: true}
}

func (aa *airspaceAllocator) usageAt(a Area, t window.Minute) int {
	return aa.usage[a][t]
}
