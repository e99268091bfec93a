package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	ollamaDefaultHost  = "http://localhost:11434"
	ollamaDefaultModel = "llama3.2"
)

// ollamaAdapter implements Model for a local Ollama instance.
type ollamaAdapter struct {
	host   string
	client *resty.Client
}

// NewOllama creates an Ollama adapter. opts.BaseURL is the Ollama host.
func NewOllama(opts Options) Model {
	host := strings.TrimRight(defaultString(opts.BaseURL, ollamaDefaultHost), "/")
	return &ollamaAdapter{
		host: host,
		client: resty.New().
			SetBaseURL(host).
			SetHeader("Content-Type", "application/json").
			SetTimeout(opts.Timeout),
	}
}

// Configured is always true; a local Ollama needs no credentials.
func (o *ollamaAdapter) Configured() bool { return true }

func (o *ollamaAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             ollamaDefaultModel,
		Provider:         ProviderOllama,
		MaxContextWindow: 32768,
	}
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Tools    []ollamaTool        `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
	Error   string            `json:"error,omitempty"`
}

func (o *ollamaAdapter) buildRequest(req GenerateRequest) ollamaChatRequest {
	messages := make([]ollamaChatMessage, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, t := range req.History {
		messages = append(messages, ollamaChatMessage{Role: string(t.Role), Content: t.Content})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: req.UserMessage})

	out := ollamaChatRequest{
		Model:    defaultString(req.Model, ollamaDefaultModel),
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": defaultInt(req.MaxTokens, 2048),
		},
	}
	for _, fn := range req.Functions {
		out.Tools = append(out.Tools, ollamaTool{
			Type:     "function",
			Function: ollamaToolFunction{Name: fn.Name, Description: fn.Description, Parameters: fn.Parameters},
		})
	}
	return out
}

func (o *ollamaAdapter) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var chat ollamaChatResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(o.buildRequest(req)).
		SetResult(&chat).
		SetError(&chat).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode(), defaultString(chat.Error, resp.String()))
	}

	out := &GenerateResponse{Text: chat.Message.Content}
	for _, tc := range chat.Message.ToolCalls {
		args := tc.Function.Arguments
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out.Calls = append(out.Calls, FunctionCall{Name: tc.Function.Name, Args: args})
	}
	return out, nil
}
