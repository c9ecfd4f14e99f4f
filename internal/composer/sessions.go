package composer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL is how long an idle session lives before it is abandoned
	DefaultSessionTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = time.Minute
)

type session struct {
	userID   string
	composer *Composer
	lastSeen time.Time
}

// Sessions keeps in-progress composers in memory, keyed by session id.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewSessions creates the store and starts its background cleanup
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &Sessions{
		sessions:    make(map[string]*session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *Sessions) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions(time.Now())
		case <-s.stopCleanup:
			return
		}
	}
}

// expireSessions abandons and drops every session idle since before now-ttl.
// Composers are abandoned after s.mu is released; one may be blocked in Save.
func (s *Sessions) expireSessions(now time.Time) int {
	var expired []*Composer

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) < s.ttl {
			continue
		}
		expired = append(expired, sess.composer)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, c := range expired {
		_ = c.Abandon()
	}
	return len(expired)
}

// Start opens a session for userID around a fresh composer for dishID
func (s *Sessions) Start(userID, dishID string) (string, *Composer) {
	id := uuid.NewString()
	c := New(dishID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{userID: userID, composer: c, lastSeen: time.Now()}
	return id, c
}

// Get returns the user's composer and refreshes its idle timer.
// Sessions owned by another user are reported as not found.
func (s *Sessions) Get(id, userID string) (*Composer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.userID != userID {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = time.Now()
	return sess.composer, nil
}

// Delete drops the session and abandons its composer if it is still in progress
func (s *Sessions) Delete(id, userID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || sess.userID != userID {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.mu.Unlock()

	// Abandon fails harmlessly on a saved composer.
	_ = sess.composer.Abandon()
	return nil
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background cleanup and waits for it to finish
func (s *Sessions) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}
