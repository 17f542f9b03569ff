package server

import (
	"sync"
	"time"

	"github.com/mrericsingh-eng/normalize/internal/processing"
)

// Stats keeps in-process counters. Nothing is persisted.
type Stats struct {
	mu         sync.RWMutex
	started    time.Time
	requests   int64
	messages   int64
	errors     int64
	categories map[processing.Category]int64
	fallbacks  map[string]int64
}

// Snapshot is the /stats body.
type Snapshot struct {
	StartedAt  time.Time                     `json:"started_at"`
	Requests   int64                         `json:"requests"`
	Messages   int64                         `json:"messages"`
	Errors     int64                         `json:"errors"`
	Categories map[processing.Category]int64 `json:"categories"`
	Fallbacks  map[string]int64              `json:"fallbacks"`
}

func NewStats() *Stats {
	return &Stats{
		started: time.Now().UTC(),
		categories: map[processing.Category]int64{
			processing.CategoryUrgent:   0,
			processing.CategoryHighRisk: 0,
			processing.CategoryBase:     0,
		},
		fallbacks: make(map[string]int64),
	}
}

// AddRequest counts one normalize request, single or batch.
func (s *Stats) AddRequest() {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
}

// Record is the processor's outcome callback.
func (s *Stats) Record(o processing.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages++
	if o.Err != nil {
		s.errors++
		return
	}
	s.categories[o.Category]++
	for _, stage := range o.Fallbacks {
		s.fallbacks[stage]++
	}
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{
		StartedAt:  s.started,
		Requests:   s.requests,
		Messages:   s.messages,
		Errors:     s.errors,
		Categories: make(map[processing.Category]int64, len(s.categories)),
		Fallbacks:  make(map[string]int64, len(s.fallbacks)),
	}
	for k, v := range s.categories {
		out.Categories[k] = v
	}
	for k, v := range s.fallbacks {
		out.Fallbacks[k] = v
	}
	return out
}
