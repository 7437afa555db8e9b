package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"araudit/internal"
	"araudit/internal/ledger"
)

// Store keeps analyzed datasets in memory until their TTL runs out.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]storeEntry
}

type storeEntry struct {
	index     *ledger.Index
	expiresAt time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{ttl: ttl, now: time.Now, entries: map[string]storeEntry{}}
}

// Put indexes ds and returns its id. Expired entries are swept on the way.
func (s *Store) Put(ds internal.Dataset) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	s.entries[id] = storeEntry{index: ledger.BuildIndex(ds), expiresAt: now.Add(s.ttl)}
	return id
}

func (s *Store) Get(id string) (*ledger.Index, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || s.now().After(e.expiresAt) {
		return nil, false
	}
	return e.index, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep drops expired datasets and reports how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(removed, kept int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		removed := s.Sweep()
		if onSweep != nil {
			onSweep(removed, s.Len())
		}
	}
}
