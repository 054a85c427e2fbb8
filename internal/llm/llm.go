// Package llm wraps the model provider behind a small generation
// interface: one prompt in, streamed chunks out, final text back. The
// deployment engine never talks to the provider SDK directly; it consumes
// the accumulated final text, so a stream that dies mid-flight never
// produces a deployable artifact.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse marks a generation that completed with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Role identifies a conversation author on the provider wire.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Request is one generation call.
type Request struct {
	// System is the per-framework system prompt.
	System string

	// History holds prior turns, oldest first.
	History []Message

	// Prompt is the new user turn.
	Prompt string
}

// StreamFunc receives raw text chunks as the model produces them.
// Returning an error aborts the generation.
type StreamFunc func(ctx context.Context, text string) error

// Generator produces model output. Generate returns the complete final
// text only after the stream ends naturally; a canceled or failed stream
// returns an error and no text.
type Generator interface {
	Generate(ctx context.Context, req Request, stream StreamFunc) (string, error)
}
