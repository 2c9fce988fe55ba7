package fetch

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
	bytes      int64
	failed     bool
}

// StatsSnapshot aggregates the fetches recorded within the window.
// Latency figures cover successful fetches only.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	Bytes    int64   `json:"bytes"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Stats tracks recent page fetches within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 64),
		window:  window,
	}
}

// RecordSuccess adds a completed fetch.
func (s *Stats) RecordSuccess(d time.Duration, bytes int64) {
	s.record(sample{durationMs: max(d.Milliseconds(), 0), bytes: bytes})
}

// RecordFailure adds a fetch that gave up after all retries.
func (s *Stats) RecordFailure() {
	s.record(sample{failed: true})
}

func (s *Stats) record(sm sample) {
	sm.at = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		if sm.failed {
			snap.Failures++
			continue
		}
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		snap.Bytes += sm.bytes
	}
	if len(values) == 0 {
		return snap
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	index := float64(len(sorted)-1) * pct / 100.0
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*weight
}
