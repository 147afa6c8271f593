package provider

import (
	"context"

	"github.com/fika/fika-prep/pkg/ai-sdk/types"
)

// LanguageModel defines the interface that all LLM providers must implement
type LanguageModel interface {
	// Generate produces a complete response (blocking)
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	// ID returns the unique identifier for this model
	ID() string
}

// GenerateRequest contains all parameters for generating text
type GenerateRequest struct {
	// Messages is the conversation history
	Messages []types.Message `json:"messages"`

	// System is an optional system prompt
	System string `json:"system,omitempty"`

	// Temperature controls randomness (0.0 to 2.0). Nil leaves the provider default;
	// a pointer to zero asks for deterministic output.
	Temperature *float32 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// JSONOutput asks the provider to emit a JSON document when it supports it
	JSONOutput bool `json:"json_output,omitempty"`
}

// Float32 returns a pointer to v, for GenerateRequest.Temperature.
func Float32(v float32) *float32 {
	return &v
}
