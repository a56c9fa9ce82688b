package weather

import (
	"sync"
	"time"
)

// Observation is a reading plus the time it was received
type Observation struct {
	Reading    Reading   `json:"reading"`
	City       string    `json:"city"`
	ObservedAt time.Time `json:"observed_at"`
}

// Tracker holds the latest reading shared by all mixes. Readers may see a
// reading that is about to be replaced; mixes fix their modifier at start.
type Tracker struct {
	mu      sync.RWMutex
	latest  *Observation
	maxAge  time.Duration
	nowFunc func() time.Time
}

// NewTracker creates a tracker. Readings older than maxAge are reported as
// absent; maxAge <= 0 keeps readings forever.
func NewTracker(maxAge time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{maxAge: maxAge, nowFunc: now}
}

// Update replaces the latest observation
func (t *Tracker) Update(obs Observation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = &obs
}

// Current returns the latest usable reading, or nil when there is none
func (t *Tracker) Current() *Reading {
	obs, ok := t.Latest()
	if !ok {
		return nil
	}
	r := obs.Reading
	return &r
}

// Latest returns the latest usable observation
func (t *Tracker) Latest() (Observation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.latest == nil {
		return Observation{}, false
	}
	if t.maxAge > 0 && t.nowFunc().Sub(t.latest.ObservedAt) > t.maxAge {
		return Observation{}, false
	}
	return *t.latest, true
}
