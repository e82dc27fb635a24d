package dispatch

import (
	"sync"
	"time"
)

// Default escalation tuning. Both are configurable; these values mirror the
// platform's observed redelivery behavior rather than any hard requirement.
const (
	DefaultEscalationWindow    = 10 * time.Minute
	DefaultEscalationThreshold = 5
	defaultCriticalThreshold   = 2
	maxWindowEntries           = 4096
)

// Critical error codes: the user can no longer be reached at all, as opposed
// to a transient delivery problem.
var defaultCriticalCodes = map[int]bool{
	131031: true, // account locked
	131056: true, // pair rate limited
	500:    true,
	503:    true,
}

// EscalationConfig tunes the sliding-window policy.
type EscalationConfig struct {
	Window            time.Duration
	Threshold         int
	CriticalThreshold int
	CriticalCodes     []int
}

type errEvent struct {
	at   time.Time
	code int
}

// Escalation keeps a sliding window of recent error observations and decides
// when ordinary errors amount to an alert. The decision is a pure function of
// the (timestamp, code) sequence observed, so replaying the same sequence
// always yields the same answers.
type Escalation struct {
	window            time.Duration
	threshold         int
	criticalThreshold int
	criticalCodes     map[int]bool

	mu      sync.Mutex
	entries []errEvent
}

func NewEscalation(cfg EscalationConfig) *Escalation {
	if cfg.Window <= 0 {
		cfg.Window = DefaultEscalationWindow
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultEscalationThreshold
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = defaultCriticalThreshold
	}

	codes := make(map[int]bool)
	if len(cfg.CriticalCodes) > 0 {
		for _, c := range cfg.CriticalCodes {
			codes[c] = true
		}
	} else {
		for c := range defaultCriticalCodes {
			codes[c] = true
		}
	}

	return &Escalation{
		window:            cfg.Window,
		threshold:         cfg.Threshold,
		criticalThreshold: cfg.CriticalThreshold,
		criticalCodes:     codes,
	}
}

// Observe records one error and reports whether the window is now escalated:
// either the total count reached the threshold, or enough critical codes
// landed inside the window.
func (e *Escalation) Observe(at time.Time, code int) bool {
	at = at.UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pruneLocked(at)
	e.entries = append(e.entries, errEvent{at: at, code: code})
	if len(e.entries) > maxWindowEntries {
		e.entries = e.entries[len(e.entries)-maxWindowEntries:]
	}

	if len(e.entries) >= e.threshold {
		return true
	}

	critical := 0
	for _, ev := range e.entries {
		if e.criticalCodes[ev.code] {
			critical++
		}
	}
	return critical >= e.criticalThreshold
}

// pruneLocked drops entries that fell out of the window relative to now.
// Entries are appended in observation order, so the slice stays sorted as
// long as callers feed timestamps monotonically; out-of-order timestamps are
// tolerated but pruned against the latest observation.
func (e *Escalation) pruneLocked(now time.Time) {
	cutoff := now.Add(-e.window)
	keep := e.entries[:0]
	for _, ev := range e.entries {
		if ev.at.After(cutoff) {
			keep = append(keep, ev)
		}
	}
	e.entries = keep
}
