package dispatch

import (
	"sync"

	"warelay/internal/model"
)

// Stats counts delivery statuses and error codes since process start.
type Stats struct {
	mu       sync.Mutex
	statuses map[model.DeliveryStatus]int
	errors   map[int]int
}

func NewStats() *Stats {
	return &Stats{
		statuses: make(map[model.DeliveryStatus]int),
		errors:   make(map[int]int),
	}
}

func (s *Stats) RecordStatus(status model.DeliveryStatus) {
	s.mu.Lock()
	s.statuses[status]++
	s.mu.Unlock()
}

func (s *Stats) RecordError(code int) {
	s.mu.Lock()
	s.errors[code]++
	s.mu.Unlock()
}

// Snapshot returns copies of both counters.
func (s *Stats) Snapshot() (statuses map[model.DeliveryStatus]int, errors map[int]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses = make(map[model.DeliveryStatus]int, len(s.statuses))
	for k, v := range s.statuses {
		statuses[k] = v
	}
	errors = make(map[int]int, len(s.errors))
	for k, v := range s.errors {
		errors[k] = v
	}
	return statuses, errors
}
