// Package llm provides clients for the text-generation services used to
// rewrite schedules from natural-language instructions.
package llm

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for LLM providers.
type Client interface {
	// Chat sends messages to the LLM and returns the raw response text.
	Chat(ctx context.Context, messages []Message) (string, error)
}
