package window

// Set is a union of minute ticks over one day.
type Set struct {
	ticks [MinutesPerDay]bool
	n     int
}

// NewSet returns the union of the given windows.
func NewSet(ws ...Window) *Set {
	s := &Set{}
	for _, w := range ws {
		s.Add(w)
	}
	return s
}

// Add marks every tick of w.
func (s *Set) Add(w Window) {
	for t := w.Start; t < w.End; t++ {
		if !t.Valid() || s.ticks[t] {
			continue
		}
		s.ticks[t] = true
		s.n++
	}
}

// Has reports whether t is covered. A nil Set covers nothing.
func (s *Set) Has(t Minute) bool {
	if s == nil || !t.Valid() {
		return false
	}
	return s.ticks[t]
}

// Len is the number of distinct ticks covered.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}
