package allocator

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"airspace-allocator/queues"

	"github.com/rs/zerolog/log"
)

// DefaultLedgerSize bounds both the runs kept per day and the number of days.
const DefaultLedgerSize = 32

// LedgerEntry summarizes one finished run for operators.
type LedgerEntry struct {
	RunID      string                  `json:"runId"`
	RequestID  string                  `json:"requestId"`
	Date       string                  `json:"date"`
	Status     queues.AllocationStatus `json:"status"`
	Summary    Summary                 `json:"summary"`
	Skipped    int                     `json:"skipped"`
	FinishedAt time.Time               `json:"finishedAt"`
	Duration   time.Duration           `json:"durationNs"`
}

// Ledger keeps recent run summaries in memory, keyed by operating day. It holds
// no allocation state; every run still starts from empty usage tables.
type Ledger struct {
	mu   sync.RWMutex
	size int
	days map[string][]LedgerEntry
}

func NewLedger(size int) *Ledger {
	if size <= 0 {
		size = DefaultLedgerSize
	}
	return &Ledger{size: size, days: make(map[string][]LedgerEntry)}
}

// Record appends e, evicting the oldest run of the day and the oldest day once
// the bounds are hit.
func (l *Ledger) Record(e LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	runs := append(l.days[e.Date], e)
	if len(runs) > l.size {
		runs = runs[len(runs)-l.size:]
	}
	l.days[e.Date] = runs

	for len(l.days) > l.size {
		oldest := ""
		for d := range l.days {
			if oldest == "" || d < oldest {
				oldest = d
			}
		}
		delete(l.days, oldest)
	}
}

// Latest returns the most recent run recorded for date.
func (l *Ledger) Latest(date string) (LedgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	runs := l.days[date]
	if len(runs) == 0 {
		return LedgerEntry{}, false
	}
	return runs[len(runs)-1], true
}

// Runs returns a copy of the runs recorded for date, oldest first.
func (l *Ledger) Runs(date string) []LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LedgerEntry, len(l.days[date]))
	copy(out, l.days[date])
	return out
}

// Days returns a snapshot of run counts per day (for monitoring/debugging)
func (l *Ledger) Days() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make(map[string]int, len(l.days))
	for d, runs := range l.days {
		snapshot[d] = len(runs)
	}
	return snapshot
}

// ServeHTTP serves the day index, or the runs of one day with ?date=YYYY-MM-DD.
func (l *Ledger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body any
	if date := r.URL.Query().Get("date"); date != "" {
		runs := l.Runs(date)
		if len(runs) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body = runs
	} else {
		days := l.Days()
		keys := make([]string, 0, len(days))
		for d := range days {
			keys = append(keys, d)
		}
		sort.Strings(keys)
		type day struct {
			Date string `json:"date"`
			Runs int    `json:"runs"`
		}
		list := make([]day, 0, len(keys))
		for _, d := range keys {
			list = append(list, day{Date: d, Runs: days[d]})
		}
		body = list
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("ledger: failed to encode response")
	}
}
