// Package llm talks to OpenAI-compatible chat-completions APIs.
package llm

import (
	"context"
	"errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrNoAPIKey is returned when a request is made without an API key.
	ErrNoAPIKey = errors.New("chat API key not set")
	// ErrEmptyResponse is returned when the API answers without a choice.
	ErrEmptyResponse = errors.New("chat API returned no choices")
	// ErrAPIRequest wraps errors reported by the API itself.
	ErrAPIRequest = errors.New("API request failed")
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion. Zero values use the client's defaults.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client produces an assistant reply for a list of messages.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}
