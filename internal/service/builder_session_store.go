package service

import (
	"sync"
	"time"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

// builderSession pairs a builder with the lock that serialises its gestures.
type builderSession struct {
	mu      sync.Mutex
	id      string
	coachID string
	builder *builder.Builder

	expiresAt time.Time
}

// sessionStore keeps sessions in memory with a sliding TTL. Expired
// sessions are dropped lazily on access or by Sweep.
type sessionStore struct {
	ttl     time.Duration
	now     func() time.Time
	onEvict func(*builderSession)

	mu    sync.Mutex
	items map[string]*builderSession
}

func newSessionStore(ttl time.Duration, now func() time.Time, onEvict func(*builderSession)) *sessionStore {
	if now == nil {
		now = time.Now
	}
	return &sessionStore{ttl: ttl, now: now, onEvict: onEvict, items: make(map[string]*builderSession)}
}

// Save registers sess and returns its expiry.
func (s *sessionStore) Save(sess *builderSession) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.expiresAt = s.now().Add(s.ttl)
	s.items[sess.id] = sess
	return sess.expiresAt
}

// Get returns a live session and extends its expiry.
func (s *sessionStore) Get(id string) (*builderSession, error) {
	s.mu.Lock()
	sess, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "builder session not found")
	}
	now := s.now()
	if now.After(sess.expiresAt) {
		delete(s.items, id)
		s.mu.Unlock()
		s.evicted(sess)
		return nil, appErrors.ErrSessionExpired
	}
	sess.expiresAt = now.Add(s.ttl)
	s.mu.Unlock()
	return sess, nil
}

// Delete removes id and reports whether it was present.
func (s *sessionStore) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if ok {
		s.evicted(sess)
	}
	return ok
}

// Sweep drops every expired session and returns how many were removed.
func (s *sessionStore) Sweep() int {
	now := s.now()
	var expired []*builderSession
	s.mu.Lock()
	for id, sess := range s.items {
		if now.After(sess.expiresAt) {
			delete(s.items, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		s.evicted(sess)
	}
	return len(expired)
}

// Len returns the number of tracked sessions, expired or not.
func (s *sessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *sessionStore) evicted(sess *builderSession) {
	if s.onEvict != nil {
		s.onEvict(sess)
	}
}
