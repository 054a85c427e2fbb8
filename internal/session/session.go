// Package session provides in-memory conversation history.
//
// A session is one user's rolling conversation: ordered turns exchanged
// with the model, identified by an opaque ID the HTTP layer hands out.
// History feeds two consumers: the model (conversation context) and the
// deployment engine (target resolution scans past turns for deployment
// confirmations).
//
// # Concurrency
//
// Store is safe for concurrent use. All state sits behind one RWMutex;
// reads return copies so callers never observe later appends.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound marks an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Role identifies a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Store holds every live session.
type Store struct {
	mu sync.RWMutex

	sessions map[string][]Message
	touched  map[string]time.Time

	// maxMessages bounds each session's history; older turns are
	// discarded first. Zero means unbounded.
	maxMessages int
}

// NewStore creates an empty store. maxMessages bounds per-session
// history (0 = unbounded).
func NewStore(maxMessages int) *Store {
	return &Store{
		sessions:    make(map[string][]Message),
		touched:     make(map[string]time.Time),
		maxMessages: maxMessages,
	}
}

// Create registers a new session and returns its ID.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = nil
	s.touched[id] = time.Now()
	return id
}

// Ensure registers id if it is unknown. Lets clients bring their own
// session identifiers.
func (s *Store) Ensure(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = nil
	}
	s.touched[id] = time.Now()
}

// Append adds turns to a session's history, trimming the oldest turns
// past the configured bound.
func (s *Store) Append(id string, msgs ...Message) error {
	now := time.Now()
	for i := range msgs {
		if msgs[i].At.IsZero() {
			msgs[i].At = now
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	history := append(s.sessions[id], msgs...)
	if s.maxMessages > 0 && len(history) > s.maxMessages {
		history = history[len(history)-s.maxMessages:]
	}
	s.sessions[id] = history
	s.touched[id] = now
	return nil
}

// History returns a copy of the session's turns, oldest first.
func (s *Store) History(id string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out, nil
}

// Exists reports whether id is a live session.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// ExpireIdle drops sessions idle for longer than maxIdle and returns
// the dropped IDs so dependent state can be released with them.
func (s *Store) ExpireIdle(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped []string
	for id, at := range s.touched {
		if at.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.touched, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}
