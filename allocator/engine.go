package allocator

import (
	"fmt"

	"airspace-allocator/window"

	"github.com/rs/zerolog/log"
)

// Engine runs single-pass, first-fit allocations over one day's flights.
// An Engine holds only static configuration; every Run owns fresh state, so
// one Engine may serve concurrent runs for different days.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Outcome is the annotated flight list of one run plus the state it left behind.
type Outcome struct {
	Flights []*FlightEvent
	Summary Summary

	freq *frequencyAllocator
	air  *airspaceAllocator
}

// Usage is the committed slot count of area a at minute t.
func (o *Outcome) Usage(a Area, t window.Minute) int {
	return o.air.usageAt(a, t)
}

// BusyWindows lists the windows committed on a frequency pair.
func (o *Outcome) BusyWindows(pair string) []window.Window {
	return o.freq.busyWindows(pair)
}

// Run assigns a frequency pair and an airspace area to each flight in input
// order. Flights are annotated in place. Running out of a resource is a normal
// outcome; only input that upstream filtering should have removed is an error,
// and in that case nothing is assigned.
func (e *Engine) Run(flights []*FlightEvent, transit []window.Window) (*Outcome, error) {
	for i, f := range flights {
		if f == nil {
			return nil, fmt.Errorf("%w: flight %d is nil", ErrInvalidFlight, i)
		}
		if err := f.Window.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFlight, f.EventID, err)
		}
		if f.allocated {
			return nil, fmt.Errorf("%w: %s already allocated", ErrInvalidFlight, f.EventID)
		}
	}
	for i, w := range transit {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("transit route %d: %w", i, err)
		}
	}

	out := &Outcome{
		Flights: flights,
		Summary: Summary{Flights: len(flights), AreaAssigned: make(map[Area]int, len(Areas))},
		freq:    newFrequencyAllocator(e.cfg.Pool),
		air:     newAirspaceAllocator(e.cfg.Rules, e.cfg.capacity(), window.NewSet(transit...)),
	}

	for _, f := range flights {
		pair, ok := out.freq.assign(f.Window)
		f.FreqPair = pair.Pair
		f.Chattermark = pair.Chattermark
		if ok {
			out.Summary.FrequencyAssigned++
		} else {
			out.Summary.FrequencyUnassigned++
		}

		res := out.air.assign(f.Prefix, f.Window)
		f.AssignedArea = res.area
		switch {
		case !res.knownPrefix:
			out.Summary.UnknownPrefix++
		case res.area == AreaNone:
			out.Summary.AreaUnassigned++
		default:
			out.Summary.AreaAssigned[res.area]++
			if res.usedFallback {
				out.Summary.AreaFallback++
			}
		}
		f.allocated = true

		log.Debug().
			Str("eventId", f.EventID).
			Str("window", f.Window.String()).
			Str("freqPair", f.FreqPair).
			Str("area", string(f.AssignedArea)).
			Bool("fallback", res.usedFallback).
			Msg("engine: flight allocated")
	}
	return out, nil
}
