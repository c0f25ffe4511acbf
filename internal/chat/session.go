// Package chat builds retrieval-augmented prompts and keeps conversation state.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kioku/internal/llm"
)

// Session is one conversation. History holds completed user/assistant turns
// in order. A Session is safe for concurrent use through its methods.
type Session struct {
	ID           string
	SystemPrompt string
	Model        string
	CreatedAt    time.Time

	mu      sync.Mutex
	history []llm.Message
	updated time.Time
}

// NewSession creates a session with a random id.
func NewSession(systemPrompt, model string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		SystemPrompt: systemPrompt,
		Model:        model,
		CreatedAt:    now,
		updated:      now,
	}
}

// History returns a copy of the recorded messages.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}

// Append records a completed exchange.
func (s *Session) Append(user, assistant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		llm.Message{Role: llm.RoleUser, Content: user},
		llm.Message{Role: llm.RoleAssistant, Content: assistant},
	)
	s.updated = time.Now()
}

// Reset forgets the history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.updated = time.Now()
}

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}
