// Package assistant runs one chat turn of the storefront sales assistant:
// it loads settings, memory and history, calls the model with the two
// callable functions, acts on the first call and persists the exchange.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/adapter"
	"github.com/bloomcart/bloomcart/internal/catalog"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/conversation"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/metrics"
	"github.com/bloomcart/bloomcart/internal/notify"
)

// DefaultHistoryLimit is how many prior messages are replayed to the model.
const DefaultHistoryLimit = 10

// MaxMemoryExcerpt bounds a preference memory entry, in characters.
const MaxMemoryExcerpt = 200

// preferenceKeywords trigger a preference memory entry. Plain substring
// matching, so "likely" counts too.
var preferenceKeywords = []string{"prefer", "like"}

// Settings is the read side of the admin-configured settings.
type Settings interface {
	AISettings(ctx context.Context) (catalog.AISettings, error)
	SiteSetting(ctx context.Context, key string) (string, error)
}

// Conversations is the per-user message and memory log.
type Conversations interface {
	AppendMessage(ctx context.Context, userID string, role conversation.Role, content string) (conversation.Message, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]conversation.Message, error)
	AppendMemory(ctx context.Context, userID, content, category string) (conversation.MemoryEntry, error)
	GetMemory(ctx context.Context, userID string, limit int) ([]conversation.MemoryEntry, error)
}

// Inquiries creates inquiry records.
type Inquiries interface {
	Create(ctx context.Context, in inquiry.NewInquiry) (inquiry.Created, error)
}

// Notifier dispatches a summary over a channel.
type Notifier interface {
	Send(ctx context.Context, channel notify.Channel, inquiryID string, data notify.InquiryData) notify.Result
}

// ContextBuilder fetches storefront context when the caller supplies none.
type ContextBuilder interface {
	Build(ctx context.Context, userID string) (*ctxpkg.RagContext, error)
}

// Options tune the model call and history window.
type Options struct {
	HistoryLimit int
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Deps are the collaborators of an Assistant. Builder, Budget, Metrics and
// Clock are optional.
type Deps struct {
	Model         adapter.Model
	Settings      Settings
	Conversations Conversations
	Inquiries     Inquiries
	Notifier      Notifier
	Builder       ContextBuilder
	Budget        *ctxpkg.Budget
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
	Clock         func() time.Time
}

// Assistant is the chat orchestrator. It holds no per-user state; every
// turn reads what it needs from the stores.
type Assistant struct {
	model     adapter.Model
	settings  Settings
	convo     Conversations
	inquiries Inquiries
	notifier  Notifier
	builder   ContextBuilder
	budget    *ctxpkg.Budget
	formatter *ctxpkg.Formatter
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
	opts      Options
}

// New creates an Assistant.
func New(d Deps, opts Options) *Assistant {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Assistant{
		model:     d.Model,
		settings:  d.Settings,
		convo:     d.Conversations,
		inquiries: d.Inquiries,
		notifier:  d.Notifier,
		builder:   d.Builder,
		budget:    d.Budget,
		formatter: ctxpkg.NewFormatter(),
		metrics:   d.Metrics,
		log:       d.Logger.With().Str("component", "assistant").Logger(),
		now:       clock,
		opts:      opts,
	}
}

// ChatRequest is one user turn. Context may be nil, in which case the
// assistant fetches it through its ContextBuilder.
type ChatRequest struct {
	UserID  string
	Message string
	Context *ctxpkg.RagContext
}

// ChatResponse is the outcome of a turn. WhatsAppSent and EmailSent are set
// only for the channel a summary was dispatched on.
type ChatResponse struct {
	Message        string `json:"message"`
	InquiryCreated bool   `json:"inquiryCreated"`
	ReferenceID    string `json:"referenceId,omitempty"`
	WhatsAppSent   *bool  `json:"whatsappSent,omitempty"`
	EmailSent      *bool  `json:"emailSent,omitempty"`
}

// Turn states, logged at debug level.
const (
	stateStart            = "START"
	stateContextLoaded    = "CONTEXT_LOADED"
	stateModelInvoked     = "MODEL_INVOKED"
	stateFunctionDispatch = "FUNCTION_DISPATCH"
	statePlainReply       = "PLAIN_REPLY"
	statePersisted        = "PERSISTED"
	stateDone             = "DONE"
)

// Chat runs one turn. Model and store failures are returned as
// *ModelInvocationError and *StoreError; dispatch failures are not errors.
func (a *Assistant) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
	start := a.now()
	outcome := "error"
	defer func() { a.metrics.RecordTurn(outcome, a.now().Sub(start)) }()

	userID := strings.TrimSpace(req.UserID)
	message := strings.TrimSpace(req.Message)
	log := a.log.With().Str("userId", userID).Logger()
	log.Debug().Str("state", stateStart).Msg("chat turn")

	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if a.model == nil || !a.model.Configured() {
		provider := "model"
		if a.model != nil {
			provider = a.model.Info().Provider
		}
		return nil, &ConfigurationError{Setting: provider + " API key"}
	}

	settings, err := a.settings.AISettings(ctx)
	if err != nil {
		return nil, &StoreError{Op: "load settings", Err: err}
	}
	if !settings.Enabled {
		log.Info().Msg("assistant disabled; returning unavailable reply")
		outcome = "disabled"
		return &ChatResponse{Message: UnavailableReply}, nil
	}

	prompt, history, err := a.loadContext(ctx, userID, req.Context, settings)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("state", stateContextLoaded).Int("history", len(history)).Msg("chat turn")

	gen, err := a.model.Generate(ctx, adapter.GenerateRequest{
		SystemPrompt: prompt,
		History:      history,
		UserMessage:  message,
		Functions:    Functions(),
		Model:        a.opts.Model,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
	})
	if err != nil {
		return nil, &ModelInvocationError{Provider: a.model.Info().Provider, Err: err}
	}
	log.Debug().Str("state", stateModelInvoked).Int("calls", len(gen.Calls)).Msg("chat turn")
	if len(gen.Calls) > 1 {
		log.Debug().Int("ignored", len(gen.Calls)-1).Msg("only the first function call is honoured")
	}

	cmd, perr := FirstCommand(gen.Calls)
	if perr != nil {
		log.Warn().Err(perr).Msg("unusable function call; treating as plain reply")
	}

	switch c := cmd.(type) {
	case SendSummaryCommand:
		log.Debug().Str("state", stateFunctionDispatch).Str("function", c.FunctionName()).Msg("chat turn")
		a.metrics.RecordFunctionCall(c.FunctionName())
		resp = a.sendSummary(ctx, c)
		outcome = "summary"
	case CreateInquiryCommand:
		log.Debug().Str("state", stateFunctionDispatch).Str("function", c.FunctionName()).Msg("chat turn")
		a.metrics.RecordFunctionCall(c.FunctionName())
		resp, err = a.createInquiry(ctx, userID, c)
		if err != nil {
			return nil, err
		}
		outcome = "inquiry"
		if !resp.InquiryCreated {
			outcome = "missing_contact"
		}
	default:
		log.Debug().Str("state", statePlainReply).Msg("chat turn")
		resp, err = a.plainReply(ctx, userID, message, gen.Text)
		if err != nil {
			return nil, err
		}
		outcome = "plain"
	}

	if _, err := a.convo.AppendMessage(ctx, userID, conversation.RoleUser, message); err != nil {
		outcome = "error"
		return nil, &StoreError{Op: "append user message", Err: err}
	}
	if _, err := a.convo.AppendMessage(ctx, userID, conversation.RoleAssistant, resp.Message); err != nil {
		outcome = "error"
		return nil, &StoreError{Op: "append assistant message", Err: err}
	}
	log.Debug().Str("state", statePersisted).Msg("chat turn")
	log.Debug().Str("state", stateDone).Str("outcome", outcome).Msg("chat turn")
	return resp, nil
}

// loadContext reads memory, history and storefront context and composes
// the system prompt. Caller-supplied and fetched context are trimmed by the
// same budget.
func (a *Assistant) loadContext(ctx context.Context, userID string, rc *ctxpkg.RagContext, settings catalog.AISettings) (string, []adapter.Turn, error) {
	memories, err := a.convo.GetMemory(ctx, userID, settings.MemoryLimit())
	if err != nil {
		return "", nil, &StoreError{Op: "load memory", Err: err}
	}
	msgs, err := a.convo.GetHistory(ctx, userID, a.opts.HistoryLimit)
	if err != nil {
		return "", nil, &StoreError{Op: "load history", Err: err}
	}
	if rc == nil && a.builder != nil {
		if rc, err = a.builder.Build(ctx, userID); err != nil {
			return "", nil, &StoreError{Op: "load storefront context", Err: err}
		}
	}
	businessName, err := a.settings.SiteSetting(ctx, catalog.SettingBusinessName)
	if err != nil {
		return "", nil, &StoreError{Op: "load business name", Err: err}
	}
	currency, err := a.settings.SiteSetting(ctx, catalog.SettingCurrencySymbol)
	if err != nil {
		return "", nil, &StoreError{Op: "load currency", Err: err}
	}

	notes := make([]string, 0, len(memories))
	for _, m := range memories {
		notes = append(notes, m.Content)
	}
	prompt := a.formatter.FormatSystemPrompt(ctxpkg.PromptInput{
		Persona:      settings.SystemPrompt,
		Tone:         settings.Tone,
		BusinessName: businessName,
		Currency:     currency,
		Memories:     notes,
		Context:      a.budget.Fit(rc),
	})

	history := make([]adapter.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := adapter.RoleUser
		if m.Role == conversation.RoleAssistant {
			role = adapter.RoleAssistant
		}
		history = append(history, adapter.Turn{Role: role, Content: m.Content})
	}
	return prompt, history, nil
}

func (a *Assistant) sendSummary(ctx context.Context, cmd SendSummaryCommand) *ChatResponse {
	res := a.notifier.Send(ctx, cmd.Method, "", BuildSummary(cmd))
	if !res.Success {
		a.log.Warn().Str("channel", string(cmd.Method)).Str("error", res.Error).Msg("summary dispatch failed")
	}

	resp := &ChatResponse{Message: summaryConfirmation(cmd, res)}
	sent := res.Success
	switch cmd.Method {
	case notify.ChannelEmail:
		resp.EmailSent = &sent
	case notify.ChannelWhatsApp:
		resp.WhatsAppSent = &sent
	}
	return resp
}

func (a *Assistant) createInquiry(ctx context.Context, userID string, cmd CreateInquiryCommand) (*ChatResponse, error) {
	in := cmd.ToNewInquiry(userID)
	if raw := cmd.UnparsedBudget(); raw != "" {
		a.log.Info().Str("budget", raw).Msg("budget is not numeric; kept in message note")
	}
	if missing := inquiry.MissingContactFields(in.Contact); len(missing) > 0 {
		a.log.Info().Strs("missing", missing).Msg("createInquiryRecord without full contact details")
		return &ChatResponse{Message: missingContactReply(missing)}, nil
	}

	created, err := a.inquiries.Create(ctx, in)
	if err != nil {
		if errors.Is(err, inquiry.ErrMissingContact) {
			return &ChatResponse{Message: missingContactReply(nil)}, nil
		}
		return nil, &StoreError{Op: "create inquiry", Err: err}
	}
	a.metrics.RecordInquiryCreated()
	a.log.Info().Str("inquiryId", created.InquiryID).Str("referenceId", created.ReferenceID).Msg("inquiry created")

	return &ChatResponse{
		Message:        inquiryConfirmation(created.ReferenceID, in.Contact),
		InquiryCreated: true,
		ReferenceID:    created.ReferenceID,
	}, nil
}

func (a *Assistant) plainReply(ctx context.Context, userID, message, text string) (*ChatResponse, error) {
	reply := text
	if strings.TrimSpace(reply) == "" {
		reply = RephraseReply
	}

	if MentionsPreference(message) {
		excerpt := Excerpt(message, MaxMemoryExcerpt)
		if _, err := a.convo.AppendMemory(ctx, userID, excerpt, conversation.CategoryPreference); err != nil {
			return nil, &StoreError{Op: "append memory", Err: err}
		}
	}
	return &ChatResponse{Message: reply}, nil
}

// MentionsPreference reports whether message contains a preference keyword,
// case-insensitively.
func MentionsPreference(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range preferenceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Excerpt returns at most n characters of s.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
