package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an idle page session is kept.
const DefaultTTL = 30 * time.Minute

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Store keeps one Controller per open page. Sessions are transient: they
// are dropped after ttl without activity and never written anywhere.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	newCtrl  func() *Controller
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates an empty store. newCtrl builds the controller for each
// new page session.
func NewStore(newCtrl func() *Controller, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*session),
		newCtrl:  newCtrl,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the idle timeout.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the controller for id and marks the session as active. A
// session idle for longer than the ttl is dropped even if no sweep has run.
func (s *Store) Get(id string) (*Controller, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess.ctrl, true
}

// Create starts a new session with fresh defaults.
func (s *Store) Create() (string, *Controller) {
	id := uuid.NewString()
	ctrl := s.newCtrl()
	s.mu.Lock()
	s.sessions[id] = &session{ctrl: ctrl, lastSeen: s.now()}
	s.mu.Unlock()
	return id, ctrl
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired.
func (s *Store) GetOrCreate(id string) (string, *Controller, bool) {
	if id != "" {
		if ctrl, ok := s.Get(id); ok {
			return id, ctrl, false
		}
	}
	newID, ctrl := s.Create()
	return newID, ctrl, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the ttl and returns how many
// were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done. onSweep, if set, is called
// with the number of sessions removed on every tick.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed, live int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed, s.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}
