package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"highrise/internal/models"
)

type Session struct {
	ID        string
	User      models.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Sessions is the in-memory registry of signed-in visitors.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	byID     map[string]Session
	onExpire []func(id string)
}

func NewSessions(ttl time.Duration, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{ttl: ttl, now: now, byID: map[string]Session{}}
}

// Create starts a session for u.
func (s *Sessions) Create(u *models.User) Session {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		User:      *u,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.byID[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// OnExpire registers fn to run with the id of every session that expires,
// whether it is found by Get or removed by Sweep. fn runs without the
// registry lock held.
func (s *Sessions) OnExpire(fn func(id string)) {
	s.mu.Lock()
	s.onExpire = append(s.onExpire, fn)
	s.mu.Unlock()
}

// Get returns the live session with the given id. An expired session is
// removed and reported as ErrSessionExpired.
func (s *Sessions) Get(id string) (Session, error) {
	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Session{}, ErrNoSession
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.byID, id)
		hooks := s.onExpire
		s.mu.Unlock()
		expired(hooks, id)
		return Session{}, ErrSessionExpired
	}
	s.mu.Unlock()
	return sess, nil
}

func expired(hooks []func(string), ids ...string) {
	for _, id := range ids {
		for _, fn := range hooks {
			fn(id)
		}
	}
}

func (s *Sessions) Delete(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Sweep drops every expired session and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	now := s.now()
	var gone []string
	for id, sess := range s.byID {
		if !now.Before(sess.ExpiresAt) {
			delete(s.byID, id)
			gone = append(gone, id)
		}
	}
	hooks := s.onExpire
	s.mu.Unlock()
	expired(hooks, gone...)
	return len(gone)
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
