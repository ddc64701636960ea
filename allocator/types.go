package allocator

import (
	"errors"
	"fmt"
	"strings"

	"airspace-allocator/window"
)

// Unassigned is the frequency pair and chattermark given to a flight when every
// pair in the pool is busy for its window.
const Unassigned = "UNASSIGNED"

// DefaultCapacity is the per-minute slot ceiling of an airspace area.
const DefaultCapacity = 4

// PrefixLen is the length of the category code at the start of an event id.
const PrefixLen = 3

// ErrInvalidFlight marks input that should have been filtered before the engine.
var ErrInvalidFlight = errors.New("allocator: invalid flight")

// Area is one of the two shared training areas.
type Area string

const (
	AreaNone Area = ""
	Area4    Area = "Area 4"
	MOA2     Area = "MOA 2"
)

// Areas lists every area in a fixed order.
var Areas = []Area{Area4, MOA2}

// Valid reports whether a is one of the two known areas.
func (a Area) Valid() bool { return a == Area4 || a == MOA2 }

// Fallback is the area tried when a is full.
func (a Area) Fallback() Area {
	switch a {
	case Area4:
		return MOA2
	case MOA2:
		return Area4
	default:
		return AreaNone
	}
}

// ParseArea accepts the canonical area names, ignoring case and spacing.
func ParseArea(s string) (Area, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch norm {
	case "area4":
		return Area4, nil
	case "moa2":
		return MOA2, nil
	}
	return AreaNone, fmt.Errorf("unknown airspace area %q", s)
}

// AirspaceRule is the per-prefix airspace demand.
type AirspaceRule struct {
	SlotsNeeded   int
	PreferredArea Area
}

// FrequencyPair is one entry of the ordered frequency pool.
type FrequencyPair struct {
	Pair        string
	Chattermark string
}

// Config is the static input of an allocation run.
type Config struct {
	Pool     []FrequencyPair
	Rules    map[string]AirspaceRule
	Capacity int
}

// Validate checks the static configuration of a run.
func (c Config) Validate() error {
	capacity := c.capacity()
	for prefix, r := range c.Rules {
		if !r.PreferredArea.Valid() {
			return fmt.Errorf("rule %s: unknown preferred area %q", prefix, r.PreferredArea)
		}
		if r.SlotsNeeded < 1 || r.SlotsNeeded > capacity {
			return fmt.Errorf("rule %s: slots %d outside 1..%d", prefix, r.SlotsNeeded, capacity)
		}
	}
	seen := make(map[string]bool, len(c.Pool))
	for i, p := range c.Pool {
		if p.Pair == "" || p.Pair == Unassigned {
			return fmt.Errorf("frequency pool entry %d: invalid pair %q", i, p.Pair)
		}
		if seen[p.Pair] {
			return fmt.Errorf("frequency pool entry %d: duplicate pair %q", i, p.Pair)
		}
		seen[p.Pair] = true
	}
	return nil
}

func (c Config) capacity() int {
	if c.Capacity <= 0 {
		return DefaultCapacity
	}
	return c.Capacity
}

// FlightEvent is a scheduled flight. The Assigned* fields are written once by
// Engine.Run.
type FlightEvent struct {
	EventID      string
	Prefix       string
	Instructor   string
	Window       window.Window
	FreqPair     string
	Chattermark  string
	AssignedArea Area
	allocated    bool
}

// NewFlightEvent builds a flight from clock strings. Flights whose window is
// degenerate or unparsable are rejected here so they never reach the engine.
func NewFlightEvent(eventID, takeoff, land, instructor string) (*FlightEvent, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty event id", ErrInvalidFlight)
	}
	w, err := window.Parse(takeoff, land)
	if err != nil {
		return nil, fmt.Errorf("flight %s: %w", id, err)
	}
	return &FlightEvent{
		EventID:    id,
		Prefix:     PrefixOf(id),
		Instructor: strings.TrimSpace(instructor),
		Window:     w,
	}, nil
}

// PrefixOf returns the category code of an event id.
func PrefixOf(eventID string) string {
	if len(eventID) < PrefixLen {
		return eventID
	}
	return eventID[:PrefixLen]
}

// Allocated reports whether the flight went through an allocation pass.
func (f *FlightEvent) Allocated() bool { return f.allocated }

// Summary counts the outcomes of one run.
type Summary struct {
	Flights             int          `json:"flights"`
	FrequencyAssigned   int          `json:"frequencyAssigned"`
	FrequencyUnassigned int          `json:"frequencyUnassigned"`
	AreaAssigned        map[Area]int `json:"areaAssigned"`
	AreaFallback        int          `json:"areaFallback"`
	AreaUnassigned      int          `json:"areaUnassigned"`
	UnknownPrefix       int          `json:"unknownPrefix"`
}
