package server

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// sessionCookieName carries the browser session identifier
const sessionCookieName = "revsync_session"

// SessionLocks serializes concurrent requests from the same browser session,
// the way PHP-style session handling would. The lock is request-scoped and
// deliberately releasable early: phase 2 releases it before reconciliation
// work and before the page body is sent, so the client's near-immediate
// purge POST is not queued behind the still-open phase-2 request.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionLocks creates an empty session lock table
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Acquire locks the session and returns an idempotent release function.
// Calling release more than once is safe; exactly one unlock happens.
func (s *SessionLocks) Acquire(sessionID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()

	var once sync.Once
	return func() {
		once.Do(lock.Unlock)
	}
}

// sessionID returns the request's session id, assigning one via cookie when absent
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return id
}
