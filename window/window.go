package window

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every Minute value.
const MinutesPerDay = 24 * 60

var (
	ErrBadClock         = errors.New("window: unparsable clock time")
	ErrDegenerateWindow = errors.New("window: land must be after takeoff")
)

// Minute is a minute-of-day tick, 0 (0000) through 1439 (2359).
type Minute int

// ParseClock parses "HHMM" or "HH:MM" into a Minute.
func ParseClock(s string) (Minute, error) {
	v := strings.TrimSpace(s)
	v = strings.Replace(v, ":", "", 1)
	if len(v) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
	}
	hh, _ := strconv.Atoi(v[:2])
	mm, _ := strconv.Atoi(v[2:])
	if hh > 23 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return Minute(hh*60 + mm), nil
}

// Valid reports whether m lies within a single day.
func (m Minute) Valid() bool { return m >= 0 && m < MinutesPerDay }

// String formats m as HHMM.
func (m Minute) String() string {
	return fmt.Sprintf("%02d%02d", int(m)/60, int(m)%60)
}

// Window is the contiguous set of minute ticks [Start, End).
type Window struct {
	Start Minute `json:"start"`
	End   Minute `json:"end"`
}

// Of builds the window for a takeoff/land pair. Both must fall within the same
// day and land must be strictly after takeoff.
func Of(takeoff, land Minute) (Window, error) {
	if !takeoff.Valid() || !land.Valid() {
		return Window{}, fmt.Errorf("%w: %d-%d", ErrBadClock, takeoff, land)
	}
	if land <= takeoff {
		return Window{}, fmt.Errorf("%w: %s-%s", ErrDegenerateWindow, takeoff, land)
	}
	return Window{Start: takeoff, End: land}, nil
}

// Parse is Of over clock strings.
func Parse(takeoff, land string) (Window, error) {
	to, err := ParseClock(takeoff)
	if err != nil {
		return Window{}, err
	}
	ld, err := ParseClock(land)
	if err != nil {
		return Window{}, err
	}
	return Of(to, ld)
}

// Validate re-checks a window that did not come from Of.
func (w Window) Validate() error {
	_, err := Of(w.Start, w.End)
	return err
}

// Len is the number of ticks in w.
func (w Window) Len() int {
	if w.End <= w.Start {
		return 0
	}
	return int(w.End - w.Start)
}

// Contains reports whether tick t is in w.
func (w Window) Contains(t Minute) bool {
	return t >= w.Start && t < w.End
}

// Ticks lists every minute in w in ascending order.
func (w Window) Ticks() []Minute {
	out := make([]Minute, 0, w.Len())
	for t := w.Start; t < w.End; t++ {
		out = append(out, t)
	}
	return out
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Overlaps is true iff a and b share at least one tick.
func Overlaps(a, b Window) bool {
	return a.Start < b.End && b.Start < a.End && a.Len() > 0 && b.Len() > 0
}

// OverlapsAny reports whether w overlaps any of others.
func OverlapsAny(w Window, others []Window) bool {
	for _, o := range others {
		if Overlaps(w, o) {
			return true
		}
	}
	return false
}
