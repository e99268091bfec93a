package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const claudeDefaultModel = "claude-sonnet-4-6"

// claudeAdapter implements Model for Anthropic Claude tool use.
type claudeAdapter struct {
	apiKey string
	client *anthropic.Client
}

// NewClaude creates a Claude adapter.
func NewClaude(apiKey string, opts Options) Model {
	clientOpts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(opts.BaseURL))
	}
	return &claudeAdapter{
		apiKey: apiKey,
		client: anthropic.NewClient(apiKey, clientOpts...),
	}
}

func (c *claudeAdapter) Configured() bool { return c.apiKey != "" }

func (c *claudeAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             claudeDefaultModel,
		Provider:         ProviderClaude,
		MaxContextWindow: 200000,
	}
}

func (c *claudeAdapter) buildRequest(req GenerateRequest) anthropic.MessagesRequest {
	messages := make([]anthropic.Message, 0, len(req.History)+1)
	for _, t := range req.History {
		role := anthropic.RoleUser
		if t.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(t.Content)},
		})
	}
	messages = append(messages, anthropic.Message{
		Role:    anthropic.RoleUser,
		Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.UserMessage)},
	})

	temp := float32(req.Temperature)
	out := anthropic.MessagesRequest{
		Model:       anthropic.Model(defaultString(req.Model, claudeDefaultModel)),
		Messages:    messages,
		MaxTokens:   defaultInt(req.MaxTokens, 2048),
		System:      req.SystemPrompt,
		Temperature: &temp,
	}
	for _, fn := range req.Functions {
		params := fn.Parameters
		if params == nil {
			params = &Schema{Type: "object"}
		}
		out.Tools = append(out.Tools, anthropic.ToolDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			InputSchema: params,
		})
	}
	return out
}

// fromContent splits a Claude response into text and tool calls.
func fromContent(content []anthropic.MessageContent) *GenerateResponse {
	out := &GenerateResponse{}
	var text []string
	for _, block := range content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if t := block.GetText(); t != "" {
				text = append(text, t)
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil {
				continue
			}
			args := block.MessageContentToolUse.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			out.Calls = append(out.Calls, FunctionCall{Name: block.MessageContentToolUse.Name, Args: args})
		}
	}
	out.Text = strings.Join(text, "")
	return out
}

func (c *claudeAdapter) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	resp, err := c.client.CreateMessages(ctx, c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("claude generate: %w", err)
	}
	return fromContent(resp.Content), nil
}
