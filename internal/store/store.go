// Package store keeps the latest audit per station in memory with TTL-based
// eviction. No persistence: a restart starts with an empty fleet view and
// the pollers repopulate it within one cycle.
package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chachamwise/axiom-audit-global/internal/engine"
)

// Audit is the stored outcome of one station poll: either a full diagnostic
// result or an error string when the station could not be read.
type Audit struct {
	StationID string
	Reading   engine.Reading
	Result    *engine.Result // nil when the poll failed
	Err       string         // non-empty when the poll failed
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory audit store, keyed by station ID.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Audit
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Audit),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured retention window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores or replaces the audit for a.StationID, stamping UpdatedAt.
// Callers must not modify a after calling Put.
func (s *Store) Put(a *Audit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.UpdatedAt = s.now()
	s.data[a.StationID] = a
}

// Get returns the Audit for the given station ID and a boolean indicating
// whether an entry was found. The entry may be stale if TTL has elapsed.
func (s *Store) Get(stationID string) (*Audit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[stationID]
	return a, ok
}

// List returns all audits whose UpdatedAt is within the TTL, sorted by
// station ID for stable output. Stale entries not yet evicted are excluded.
func (s *Store) List() []*Audit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Audit, 0, len(s.data))
	for _, a := range s.data {
		if a.UpdatedAt.After(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StationID < out[j].StationID })
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, a := range s.data {
		if !a.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// interval (minimum 1 second) so entries are evicted promptly. Run blocks
// until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale audits", "count", n)
			}
		}
	}
}
