package deploy

import (
	"sync"
	"time"

	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/space"
)

// Record is the server-side memory of one successful deployment.
type Record struct {
	Target    space.Target
	Framework framework.Framework
	Timestamp time.Time
}

// SessionStore remembers what each session has deployed, keyed by opaque
// session identifier. At most one live entry exists per framework per
// session: recording supersedes older entries for the same framework and
// the same target.
//
// The store is an explicit process-wide state object, safe for concurrent
// use. Concurrent records for the same session race with last-write-wins
// semantics, which only affects which target a future turn updates.
// Entries are dropped with Forget when the owning session expires; expiry
// scheduling is the session layer's concern.
type SessionStore struct {
	mu      sync.RWMutex
	entries map[string][]Record
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{entries: make(map[string][]Record)}
}

// Put appends rec for the session, removing any prior entry for the same
// resolved target and any prior entry for the same framework first.
func (s *SessionStore) Put(sessionID string, rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[sessionID][:0]
	for _, existing := range s.entries[sessionID] {
		if existing.Target == rec.Target || existing.Framework == rec.Framework {
			continue
		}
		kept = append(kept, existing)
	}
	s.entries[sessionID] = append(kept, rec)
}

// Latest returns the most recent record for the given framework.
func (s *SessionStore) Latest(sessionID string, fw framework.Framework) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.entries[sessionID]
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Framework == fw {
			return records[i], true
		}
	}
	return Record{}, false
}

// All returns a copy of the session's records in recording order.
func (s *SessionStore) All(sessionID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.entries[sessionID]
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// Forget drops every record for the session. Called on session expiry.
func (s *SessionStore) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}
