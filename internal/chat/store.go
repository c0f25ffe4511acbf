package chat

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps sessions in memory for the HTTP API.
type SessionStore struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	systemPrompt string
	model        string
	ttl          time.Duration
}

// NewSessionStore creates a store whose new sessions use systemPrompt and model.
// Sessions idle for longer than ttl are dropped by Prune; ttl <= 0 keeps them forever.
func NewSessionStore(systemPrompt, model string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions:     make(map[string]*Session),
		systemPrompt: systemPrompt,
		model:        model,
		ttl:          ttl,
	}
}

// Create starts a new session.
func (st *SessionStore) Create() *Session {
	s := NewSession(st.systemPrompt, st.model)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with id.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session with id, or a new session when id is empty.
func (st *SessionStore) GetOrCreate(id string) (*Session, error) {
	if id == "" {
		return st.Create(), nil
	}
	return st.Get(id)
}

// Delete removes a session.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Prune drops sessions idle since before now-ttl and returns how many were dropped.
func (st *SessionStore) Prune(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.UpdatedAt().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
