package chat

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kioku/internal/llm"
)

// FallbackSystemPrompt is used when a session's system prompt is blank.
const FallbackSystemPrompt = "You are a helpful AI assistant."

const contextTemplate = "Here is relevant information from the knowledge base:\n\n%s\n\nUse this information to help answer the user's question if relevant."

// ContextMessage wraps a retrieval context block in the system message sent to the model.
func ContextMessage(context string) llm.Message {
	return llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf(contextTemplate, context),
	}
}

// BuildMessages returns the message list for one request: the system prompt,
// the context message when context is non-empty, the last historyLimit history
// messages, then the user message. historyLimit <= 0 sends no history.
func BuildMessages(systemPrompt string, history []llm.Message, userMessage, context string, historyLimit int) []llm.Message {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = FallbackSystemPrompt
	}
	msgs := make([]llm.Message, 0, 3+len(history))
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	if context != "" {
		msgs = append(msgs, ContextMessage(context))
	}
	if historyLimit > 0 {
		if len(history) > historyLimit {
			history = history[len(history)-historyLimit:]
		}
		msgs = append(msgs, history...)
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: userMessage})
}
