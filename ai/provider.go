// Package ai talks to large language model providers.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when the provider answered without any text
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrUnknownProvider is returned for an unsupported LLM_PROVIDER value
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// Role of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn sent to the model
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion call
type Request struct {
	// Operation names the caller for metrics and spans, e.g. "classify"
	Operation string
	// System is the instruction placed before the conversation
	System   string
	Messages []Message
	// JSON asks the provider for a JSON object response where supported
	JSON        bool
	MaxTokens   int
	Temperature float32
}

// Provider completes a conversation. Implementations must honour ctx.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
