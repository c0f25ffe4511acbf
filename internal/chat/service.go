package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kioku/internal/llm"
	"go.uber.org/zap"
)

// ErrEmptyMessage is returned for a blank user message.
var ErrEmptyMessage = errors.New("message is empty")

// ContextRetriever returns the context block for a query, if any.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string, topK int) (string, bool, error)
}

// Reply is the outcome of one chat turn.
type Reply struct {
	SessionID   string `json:"session_id"`
	Content     string `json:"reply"`
	ContextUsed bool   `json:"context_used"`
	Context     string `json:"context,omitempty"`
}

// Service answers user messages with retrieval-augmented prompts.
type Service struct {
	retriever    ContextRetriever
	client       llm.Client
	topK         int
	historyLimit int
	logger       *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithTopK sets the number of chunks retrieved per message. 0 uses the retriever's default.
func WithTopK(k int) ServiceOption {
	return func(s *Service) { s.topK = k }
}

// WithHistoryLimit sets how many history messages are sent with each request.
func WithHistoryLimit(n int) ServiceOption {
	return func(s *Service) { s.historyLimit = n }
}

// DefaultHistoryLimit is the number of history messages sent by default.
const DefaultHistoryLimit = 10

// NewService creates a chat service.
func NewService(retriever ContextRetriever, client llm.Client, opts ...ServiceOption) *Service {
	s := &Service{
		retriever:    retriever,
		client:       client,
		historyLimit: DefaultHistoryLimit,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask retrieves context for message, sends the prompt, and records the turn in
// session. The session is left unchanged when any step fails.
func (s *Service) Ask(ctx context.Context, session *Session, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	kbContext, found, err := s.retriever.RetrieveContext(ctx, message, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	if !found {
		kbContext = ""
	}

	msgs := BuildMessages(session.SystemPrompt, session.History(), message, kbContext, s.historyLimit)
	answer, err := s.client.Complete(ctx, msgs, llm.Options{Model: session.Model})
	if err != nil {
		s.logger.Warn("chat completion failed", zap.String("session", session.ID), zap.Error(err))
		return nil, err
	}
	session.Append(message, answer)

	s.logger.Debug("chat turn completed",
		zap.String("session", session.ID),
		zap.Bool("context_used", found),
		zap.Int("messages", len(msgs)))
	return &Reply{
		SessionID:   session.ID,
		Content:     answer,
		ContextUsed: found,
		Context:     kbContext,
	}, nil
}
