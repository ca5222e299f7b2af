// Package llm provides the completion client used by query generation,
// relevance scoring, and report writing.
//
// The Client interface keeps callers testable; the OpenAI implementation
// works against any OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyPrompt indicates an empty prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("model returned empty response")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Usage reports token consumption for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request describes a completion call.
type Request struct {
	// Prompt is the user message. Required.
	Prompt string

	// Temperature controls randomness. Zero means the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means no explicit cap.
	MaxTokens int

	// JSONMode asks the model to emit a JSON object.
	JSONMode bool
}

// Result is a completed generation.
type Result struct {
	Text  string
	Usage Usage
}

// Client generates text completions.
type Client interface {
	// Complete runs a single-prompt completion.
	Complete(ctx context.Context, req Request) (*Result, error)

	// Model returns the configured model name.
	Model() string
}
