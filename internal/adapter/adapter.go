// Package adapter provides a unified function-calling interface over the
// supported language model providers.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Provider name constants.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message replayed to the model.
type Turn struct {
	Role    Role
	Content string
}

// Schema is a JSON Schema fragment describing function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// FunctionSpec declares a function the model may call.
type FunctionSpec struct {
	Name        string
	Description string
	Parameters  *Schema
}

// FunctionCall is a function invocation requested by the model. Args holds
// the raw JSON object of arguments.
type FunctionCall struct {
	Name string
	Args json.RawMessage
}

// GenerateRequest holds the parameters for a single model call.
type GenerateRequest struct {
	SystemPrompt string
	History      []Turn
	UserMessage  string
	Functions    []FunctionSpec
	Model        string
	MaxTokens    int
	Temperature  float64
}

// GenerateResponse is the model's answer: free text, function calls, or both.
// Calls preserve the order the provider returned them in.
type GenerateResponse struct {
	Text  string
	Calls []FunctionCall
}

// ModelInfo describes the configured model.
type ModelInfo struct {
	Name             string
	Provider         string
	MaxContextWindow int
}

// Model is the common interface all provider adapters implement.
type Model interface {
	// Generate sends one turn and returns the model's reply.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Configured reports whether the adapter has the credentials it needs.
	Configured() bool

	// Info returns metadata about the adapter/model.
	Info() ModelInfo
}

// Options tune adapter construction. Zero values select provider defaults.
type Options struct {
	// BaseURL overrides the provider API endpoint (the Ollama host for ollama).
	BaseURL string
	Timeout time.Duration
}

// New constructs the Model for the named provider.
//
//   - provider: "gemini", "openai", "claude", "ollama"
//   - apiKey: provider API key; an empty key yields an adapter whose
//     Configured method reports false (ollama needs none)
func New(provider, apiKey string, opts Options) (Model, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	switch provider {
	case ProviderGemini, "":
		return NewGemini(apiKey, opts), nil
	case ProviderOpenAI:
		return NewOpenAI(apiKey, opts), nil
	case ProviderClaude:
		return NewClaude(apiKey, opts), nil
	case ProviderOllama:
		return NewOllama(opts), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: gemini, openai, claude, ollama", provider)
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
