package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
	geminiDefaultModel = "gemini-2.0-flash"
)

// geminiAdapter implements Model for Google Gemini via the REST API.
type geminiAdapter struct {
	apiKey string
	client *resty.Client
}

// NewGemini creates a Gemini adapter.
func NewGemini(apiKey string, opts Options) Model {
	return &geminiAdapter{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(strings.TrimRight(defaultString(opts.BaseURL, geminiBaseURL), "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(opts.Timeout),
	}
}

func (g *geminiAdapter) Configured() bool { return g.apiKey != "" }

func (g *geminiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:             geminiDefaultModel,
		Provider:         ProviderGemini,
		MaxContextWindow: 1000000,
	}
}

// ---------- Wire types ----------

type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Parameters  *geminiSchema `json:"parameters,omitempty"`
}

// geminiSchema is the OpenAPI subset Gemini accepts; types are uppercase.
type geminiSchema struct {
	Type        string                   `json:"type"`
	Description string                   `json:"description,omitempty"`
	Enum        []string                 `json:"enum,omitempty"`
	Properties  map[string]*geminiSchema `json:"properties,omitempty"`
	Items       *geminiSchema            `json:"items,omitempty"`
	Required    []string                 `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func toGeminiSchema(s *Schema) *geminiSchema {
	if s == nil {
		return nil
	}
	out := &geminiSchema{
		Type:        strings.ToUpper(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Items:       toGeminiSchema(s.Items),
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*geminiSchema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGeminiSchema(v)
		}
	}
	return out
}

func (g *geminiAdapter) buildRequest(req GenerateRequest) geminiGenerateRequest {
	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, t := range req.History {
		role := "user"
		if t.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiContent{Role: role, Parts: []geminiPart{{Text: t.Content}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.UserMessage}}})

	temp := req.Temperature
	out := geminiGenerateRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			MaxOutputTokens: defaultInt(req.MaxTokens, 2048),
			Temperature:     &temp,
		},
	}
	if req.SystemPrompt != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if len(req.Functions) > 0 {
		decls := make([]geminiFunctionDeclaration, 0, len(req.Functions))
		for _, fn := range req.Functions {
			decls = append(decls, geminiFunctionDeclaration{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  toGeminiSchema(fn.Parameters),
			})
		}
		out.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}
	return out
}

func (g *geminiAdapter) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := defaultString(req.Model, geminiDefaultModel)

	var genResp geminiGenerateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(g.buildRequest(req)).
		SetResult(&genResp).
		SetError(&genResp).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", model))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp.IsError() {
		if genResp.Error != nil {
			return nil, fmt.Errorf("gemini generate: status %d: %s", resp.StatusCode(), genResp.Error.Message)
		}
		return nil, fmt.Errorf("gemini generate: status %d: %s", resp.StatusCode(), resp.String())
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("gemini api error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}

	out := &GenerateResponse{}
	if len(genResp.Candidates) == 0 {
		return out, nil
	}
	var text []string
	for _, part := range genResp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			out.Calls = append(out.Calls, FunctionCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args})
			continue
		}
		if part.Text != "" {
			text = append(text, part.Text)
		}
	}
	out.Text = strings.Join(text, "")
	return out, nil
}
