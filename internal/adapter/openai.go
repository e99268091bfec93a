package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const openaiDefaultModel = "gpt-4o-mini"

// openaiAdapter implements Model for OpenAI chat completions with tools.
type openaiAdapter struct {
	apiKey string
	client *openai.Client
}

// NewOpenAI creates an OpenAI adapter.
func NewOpenAI(apiKey string, opts Options) Model {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	return &openaiAdapter{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (o *openaiAdapter) Configured() bool { return o.apiKey != "" }

func (o *openaiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             openaiDefaultModel,
		Provider:         ProviderOpenAI,
		MaxContextWindow: 128000,
	}
}

func toDefinition(s *Schema) jsonschema.Definition {
	if s == nil {
		return jsonschema.Definition{Type: jsonschema.Object}
	}
	def := jsonschema.Definition{
		Type:        jsonschema.DataType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
	}
	if s.Items != nil {
		items := toDefinition(s.Items)
		def.Items = &items
	}
	if len(s.Properties) > 0 {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for k, v := range s.Properties {
			def.Properties[k] = toDefinition(v)
		}
	}
	return def
}

func (o *openaiAdapter) buildRequest(req GenerateRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, t := range req.History {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})

	out := openai.ChatCompletionRequest{
		Model:       defaultString(req.Model, openaiDefaultModel),
		Messages:    messages,
		MaxTokens:   defaultInt(req.MaxTokens, 2048),
		Temperature: float32(req.Temperature),
	}
	for _, fn := range req.Functions {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  toDefinition(fn.Parameters),
			},
		})
	}
	return out
}

func (o *openaiAdapter) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, o.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}

	out := &GenerateResponse{}
	if len(resp.Choices) == 0 {
		return out, nil
	}
	msg := resp.Choices[0].Message
	out.Text = msg.Content
	for _, tc := range msg.ToolCalls {
		if tc.Type != "" && tc.Type != openai.ToolTypeFunction {
			continue
		}
		args := json.RawMessage(tc.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		out.Calls = append(out.Calls, FunctionCall{Name: tc.Function.Name, Args: args})
	}
	return out, nil
}
