package pipeline

import (
	"math"
	"sync"
)

// ProgressFunc receives a load's completion percentage in [0, 100]. Calls for
// one load are serialized and never decrease.
type ProgressFunc func(percent int)

// percentOf converts completed requests into a rounded percentage.
func percentOf(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

// progressCounter counts settled requests for one load. complete may be
// called from many goroutines; reports happen under the lock so observers see
// a non-decreasing sequence.
type progressCounter struct {
	mu     sync.Mutex
	total  int
	done   int
	report ProgressFunc
}

func newProgressCounter(total int, report ProgressFunc) *progressCounter {
	return &progressCounter{total: total, report: report}
}

func (c *progressCounter) complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done++
	if c.report != nil {
		c.report(percentOf(c.done, c.total))
	}
}

// ProgressSnapshot is the last progress value recorded for a depth.
type ProgressSnapshot struct {
	Years      int    `json:"years"`
	Percent    int    `json:"percent"`
	Invocation string `json:"invocation"`
}

// ProgressTracker keeps the progress of the newest load for each depth.
// Updates from an older generation are ignored once a newer load has started.
type ProgressTracker struct {
	mu      sync.RWMutex
	entries map[int]trackedProgress
}

type trackedProgress struct {
	generation uint64
	snapshot   ProgressSnapshot
}

// NewProgressTracker creates an empty tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{entries: make(map[int]trackedProgress)}
}

// start registers a new load for years at 0%. A generation older than the
// one already tracked is ignored.
func (t *ProgressTracker) start(years int, generation uint64, invocation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.entries[years]; ok && cur.generation > generation {
		return
	}
	t.entries[years] = trackedProgress{
		generation: generation,
		snapshot:   ProgressSnapshot{Years: years, Percent: 0, Invocation: invocation},
	}
}

// update records percent for the load identified by generation and reports
// whether it was still the newest one.
func (t *ProgressTracker) update(years int, generation uint64, percent int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.entries[years]
	if !ok || cur.generation != generation {
		return false
	}
	if percent > cur.snapshot.Percent {
		cur.snapshot.Percent = percent
		t.entries[years] = cur
	}
	return true
}

// Get returns the latest snapshot for years.
func (t *ProgressTracker) Get(years int) (ProgressSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur, ok := t.entries[years]
	return cur.snapshot, ok
}
