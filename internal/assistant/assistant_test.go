package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/adapter"
	"github.com/bloomcart/bloomcart/internal/catalog"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/conversation"
	"github.com/bloomcart/bloomcart/internal/db"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/notify"
)

// fakeModel returns a canned response and records the last request.
type fakeModel struct {
	resp    *adapter.GenerateResponse
	err     error
	unkeyed bool
	calls   int
	lastReq adapter.GenerateRequest
}

func (f *fakeModel) Generate(_ context.Context, req adapter.GenerateRequest) (*adapter.GenerateResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &adapter.GenerateResponse{}, nil
	}
	return f.resp, nil
}

func (f *fakeModel) Configured() bool { return !f.unkeyed }

func (f *fakeModel) Info() adapter.ModelInfo {
	return adapter.ModelInfo{Name: "fake", Provider: "fake"}
}

// recordingNotifier records dispatches and returns a fixed result.
type recordingNotifier struct {
	result   notify.Result
	channels []notify.Channel
	data     []notify.InquiryData
}

func (r *recordingNotifier) Send(_ context.Context, ch notify.Channel, _ string, d notify.InquiryData) notify.Result {
	r.channels = append(r.channels, ch)
	r.data = append(r.data, d)
	return r.result
}

type harness struct {
	assistant *Assistant
	model     *fakeModel
	notifier  *recordingNotifier
	catalog   *catalog.Store
	convo     *conversation.Store
	inquiries *inquiry.Store
}

func newHarness(t *testing.T, model *fakeModel) *harness {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	h := &harness{
		model:     model,
		notifier:  &recordingNotifier{},
		catalog:   catalog.NewStore(database),
		convo:     conversation.NewStore(database),
		inquiries: inquiry.NewStore(database),
	}
	h.assistant = New(Deps{
		Model:         model,
		Settings:      h.catalog,
		Conversations: h.convo,
		Inquiries:     h.inquiries,
		Notifier:      h.notifier,
		Builder:       ctxpkg.NewBuilder(h.catalog, nil),
		Logger:        zerolog.Nop(),
	}, Options{})
	return h
}

func call(name string, args any) adapter.FunctionCall {
	b, _ := json.Marshal(args)
	return adapter.FunctionCall{Name: name, Args: b}
}

func (h *harness) messageCount(t *testing.T, userID string) int {
	t.Helper()
	n, err := h.convo.CountMessages(context.Background(), userID)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	return n
}

func TestChat_CreateInquiry(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{
		call(FunctionCreateInquiry, map[string]any{
			"contactName":  "Asha",
			"contactPhone": "9999999999",
			"contactEmail": "asha@x.com",
			"occasion":     "Sister's wedding",
			"budgetMax":    20000,
		}),
	}}}
	h := newHarness(t, model)
	ctx := context.Background()

	resp, err := h.assistant.Chat(ctx, ChatRequest{
		UserID:  "user-asha",
		Message: "I need flowers for my sister's wedding, budget ₹20,000, my name is Asha, phone 9999999999, email asha@x.com, yes please submit",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if !resp.InquiryCreated {
		t.Fatal("expected inquiryCreated")
	}
	if !regexp.MustCompile(`^INQ-\d{8}-[A-Z0-9]{6}$`).MatchString(resp.ReferenceID) {
		t.Errorf("reference id %q has wrong format", resp.ReferenceID)
	}
	if !strings.Contains(resp.Message, resp.ReferenceID) {
		t.Errorf("confirmation %q should contain the reference id", resp.Message)
	}
	if !strings.Contains(resp.Message, "9999999999") || !strings.Contains(resp.Message, "asha@x.com") {
		t.Errorf("confirmation should repeat contact details: %q", resp.Message)
	}

	inq, err := h.inquiries.GetByReferenceID(ctx, resp.ReferenceID)
	if err != nil || inq == nil {
		t.Fatalf("GetByReferenceID: %v, %v", inq, err)
	}
	if inq.Status != inquiry.StatusNew || inq.WhatsAppSent || inq.EmailSent {
		t.Errorf("expected NEW with no sends, got %+v", inq)
	}
	if inq.Details.BudgetMax == nil || *inq.Details.BudgetMax != 20000 {
		t.Errorf("budget max = %v", inq.Details.BudgetMax)
	}
	if len(h.notifier.channels) != 0 {
		t.Errorf("inquiry creation must not dispatch, got %v", h.notifier.channels)
	}
	if n := h.messageCount(t, "user-asha"); n != 2 {
		t.Errorf("expected 2 persisted messages, got %d", n)
	}
}

func TestChat_SendSummaryEmail_UnconfiguredStillConfirms(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{
		call(FunctionSendSummary, map[string]any{
			"method":          "email",
			"customerName":    "Asha",
			"customerContact": "asha@x.com",
			"occasion":        "Birthday",
			"preferences":     "pastel colors",
		}),
	}}}
	h := newHarness(t, model)
	// Real email dispatcher without an API key.
	h.assistant.notifier = notify.NewService(nil, nil, zerolog.Nop(),
		notify.NewEmail(notify.EmailConfig{}, nil, nil, zerolog.Nop()))

	resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "send me a summary via email"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.InquiryCreated {
		t.Error("sendSummary must not create an inquiry")
	}
	if resp.EmailSent == nil || *resp.EmailSent {
		t.Errorf("expected emailSent=false, got %v", resp.EmailSent)
	}
	if resp.WhatsAppSent != nil {
		t.Error("whatsappSent should be absent for an email summary")
	}
	if !strings.Contains(resp.Message, "sent a summary") || !strings.Contains(resp.Message, "email") {
		t.Errorf("email confirmation should read as success, got %q", resp.Message)
	}
	all, _ := h.inquiries.ListAll(context.Background(), inquiry.Page{})
	if len(all) != 0 {
		t.Errorf("expected no inquiries, got %d", len(all))
	}
	if n := h.messageCount(t, "u1"); n != 2 {
		t.Errorf("expected 2 persisted messages, got %d", n)
	}
}

func TestChat_SendSummaryWhatsApp_ReflectsResult(t *testing.T) {
	args := map[string]any{
		"method":          "whatsapp",
		"customerName":    "Ravi",
		"customerContact": "9000000000",
		"occasion":        "Anniversary",
		"preferences":     "red roses",
	}

	t.Run("failure", func(t *testing.T) {
		h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{call(FunctionSendSummary, args)}}})
		h.notifier.result = notify.Result{Success: false, Error: notify.ErrWhatsAppNotConfigured}

		resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "whatsapp me a summary"})
		if err != nil {
			t.Fatalf("dispatch failure must not fail the turn: %v", err)
		}
		if resp.WhatsAppSent == nil || *resp.WhatsAppSent {
			t.Errorf("expected whatsappSent=false, got %v", resp.WhatsAppSent)
		}
		if !strings.Contains(resp.Message, "couldn't send") {
			t.Errorf("expected failure wording, got %q", resp.Message)
		}
		if n := h.messageCount(t, "u1"); n != 2 {
			t.Errorf("expected 2 persisted messages, got %d", n)
		}
	})

	t.Run("success", func(t *testing.T) {
		h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{call(FunctionSendSummary, args)}}})
		h.notifier.result = notify.Result{Success: true}

		resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "whatsapp me a summary"})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if resp.WhatsAppSent == nil || !*resp.WhatsAppSent {
			t.Errorf("expected whatsappSent=true, got %v", resp.WhatsAppSent)
		}
		if len(h.notifier.channels) != 1 || h.notifier.channels[0] != notify.ChannelWhatsApp {
			t.Errorf("dispatches = %v", h.notifier.channels)
		}
		text := h.notifier.data[0].Text()
		for _, want := range []string{"Customer name: Ravi", "Preferences: red roses", "Conversation highlights: Not specified"} {
			if !strings.Contains(text, want) {
				t.Errorf("summary missing %q:\n%s", want, text)
			}
		}
	})
}

func TestChat_PreferenceMemory(t *testing.T) {
	h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: "Lilies are a lovely choice!"}})
	ctx := context.Background()

	resp, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: "I prefer lilies over roses"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message != "Lilies are a lovely choice!" || resp.InquiryCreated {
		t.Errorf("unexpected response: %+v", resp)
	}

	mem, err := h.convo.GetMemory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if len(mem) != 1 || mem[0].Category != conversation.CategoryPreference || mem[0].Content != "I prefer lilies over roses" {
		t.Errorf("unexpected memory: %+v", mem)
	}
}

func TestChat_PreferenceMemory_Truncated(t *testing.T) {
	h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: "Noted."}})
	ctx := context.Background()

	long := "I really LIKE " + strings.Repeat("peonies and ", 40)
	if _, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: long}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	mem, _ := h.convo.GetMemory(ctx, "u1", 10)
	if len(mem) != 1 || utf8.RuneCountInString(mem[0].Content) > MaxMemoryExcerpt {
		t.Errorf("expected one excerpt of at most %d chars, got %+v", MaxMemoryExcerpt, mem)
	}
}

func TestChat_NoPreferenceKeyword_NoMemory(t *testing.T) {
	h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: "Sure."}})
	ctx := context.Background()

	if _, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: "What are your opening hours?"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if mem, _ := h.convo.GetMemory(ctx, "u1", 10); len(mem) != 0 {
		t.Errorf("expected no memory, got %+v", mem)
	}
}

func TestChat_FirstCallWins(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{
		call(FunctionSendSummary, map[string]any{"method": "email", "customerName": "Asha"}),
		call(FunctionCreateInquiry, map[string]any{"contactName": "Asha", "contactPhone": "1", "contactEmail": "a@x.com"}),
	}}}
	h := newHarness(t, model)

	resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "do both"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.InquiryCreated {
		t.Error("second call must be ignored")
	}
	if len(h.notifier.channels) != 1 {
		t.Errorf("expected exactly one dispatch, got %v", h.notifier.channels)
	}
	all, _ := h.inquiries.ListAll(context.Background(), inquiry.Page{})
	if len(all) != 0 {
		t.Errorf("expected no inquiries, got %d", len(all))
	}
}

func TestChat_MissingContact(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{
		call(FunctionCreateInquiry, map[string]any{"contactName": "Asha"}),
	}}}
	h := newHarness(t, model)

	resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "submit it"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.InquiryCreated {
		t.Error("inquiry must not be created without full contact")
	}
	if !strings.Contains(resp.Message, "phone number and email address") {
		t.Errorf("expected a request for the missing fields, got %q", resp.Message)
	}
	if n := h.messageCount(t, "u1"); n != 2 {
		t.Errorf("expected the turn to be persisted, got %d messages", n)
	}
}

func TestChat_UnknownFunctionIsPlainReply(t *testing.T) {
	tests := []struct {
		name string
		resp *adapter.GenerateResponse
		want string
	}{
		{"with text", &adapter.GenerateResponse{Text: "Here you go.", Calls: []adapter.FunctionCall{{Name: "bookTable", Args: json.RawMessage(`{}`)}}}, "Here you go."},
		{"without text", &adapter.GenerateResponse{Calls: []adapter.FunctionCall{{Name: "bookTable"}}}, RephraseReply},
		{"bad args", &adapter.GenerateResponse{Calls: []adapter.FunctionCall{{Name: FunctionSendSummary, Args: json.RawMessage(`{"method":"fax"}`)}}}, RephraseReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeModel{resp: tt.resp})
			resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hello"})
			if err != nil {
				t.Fatalf("Chat: %v", err)
			}
			if resp.Message != tt.want {
				t.Errorf("message = %q, want %q", resp.Message, tt.want)
			}
			if len(h.notifier.channels) != 0 {
				t.Error("no dispatch expected")
			}
		})
	}
}

func TestChat_ModelError(t *testing.T) {
	cause := errors.New("upstream 500")
	h := newHarness(t, &fakeModel{err: cause})

	_, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hello"})
	var mie *ModelInvocationError
	if !errors.As(err, &mie) {
		t.Fatalf("expected *ModelInvocationError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("model error should wrap the cause")
	}
	if n := h.messageCount(t, "u1"); n != 0 {
		t.Errorf("failed turn must not persist messages, got %d", n)
	}
}

func TestChat_ModelNotConfigured(t *testing.T) {
	h := newHarness(t, &fakeModel{unkeyed: true})

	_, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hello"})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigurationError, got %v", err)
	}
	if h.model.calls != 0 {
		t.Error("model must not be invoked")
	}
}

func TestChat_InvalidInput(t *testing.T) {
	h := newHarness(t, &fakeModel{})
	for _, req := range []ChatRequest{{UserID: "", Message: "hi"}, {UserID: "u1", Message: "   "}} {
		if _, err := h.assistant.Chat(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Chat(%+v): expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestChat_Disabled(t *testing.T) {
	h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: "should not be used"}})
	ctx := context.Background()
	st := catalog.DefaultAISettings()
	st.Enabled = false
	if err := h.catalog.SaveAISettings(ctx, st); err != nil {
		t.Fatalf("SaveAISettings: %v", err)
	}

	resp, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: "I like tulips"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message != UnavailableReply {
		t.Errorf("message = %q", resp.Message)
	}
	if h.model.calls != 0 {
		t.Error("disabled assistant must not call the model")
	}
	if n := h.messageCount(t, "u1"); n != 0 {
		t.Errorf("disabled assistant must not persist, got %d messages", n)
	}
}

func TestChat_PromptAndHistory(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Text: "reply"}}
	h := newHarness(t, model)
	ctx := context.Background()

	st := catalog.DefaultAISettings()
	st.MaxMemoryChunks = 2
	st.SystemPrompt = "You are Bloom."
	if err := h.catalog.SaveAISettings(ctx, st); err != nil {
		t.Fatalf("SaveAISettings: %v", err)
	}
	for _, m := range []string{"likes white", "likes blue", "likes gold"} {
		h.convo.AppendMemory(ctx, "u1", m, conversation.CategoryPreference)
	}
	for i := 0; i < 12; i++ {
		h.convo.AppendMessage(ctx, "u1", conversation.RoleUser, "old message")
	}

	_, err := h.assistant.Chat(ctx, ChatRequest{
		UserID:  "u1",
		Message: "what do you suggest?",
		Context: &ctxpkg.RagContext{CatalogLines: []string{"Orchid Pot – ₹900"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	req := model.lastReq
	if !strings.HasPrefix(req.SystemPrompt, "You are Bloom.") {
		t.Errorf("persona override missing: %q", req.SystemPrompt)
	}
	if strings.Contains(req.SystemPrompt, "likes white") || !strings.Contains(req.SystemPrompt, "likes blue") || !strings.Contains(req.SystemPrompt, "likes gold") {
		t.Errorf("expected only the 2 most recent memories:\n%s", req.SystemPrompt)
	}
	if !strings.Contains(req.SystemPrompt, "Orchid Pot – ₹900") {
		t.Error("caller-supplied context missing from prompt")
	}
	if len(req.History) != DefaultHistoryLimit {
		t.Errorf("history length = %d, want %d", len(req.History), DefaultHistoryLimit)
	}
	if req.UserMessage != "what do you suggest?" {
		t.Errorf("user message = %q", req.UserMessage)
	}
	if len(req.Functions) != 2 || req.Functions[0].Name != FunctionCreateInquiry || req.Functions[1].Name != FunctionSendSummary {
		t.Errorf("unexpected functions: %+v", req.Functions)
	}
}

func TestChat_FetchesContextWhenAbsent(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Text: "reply"}}
	h := newHarness(t, model)
	ctx := context.Background()
	h.catalog.UpsertItem(ctx, catalog.Item{Title: "Sunflower Basket", PriceMin: 1200, Published: true})

	if _, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: "hi"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(model.lastReq.SystemPrompt, "Sunflower Basket – ₹1,200") {
		t.Errorf("expected builder context in prompt:\n%s", model.lastReq.SystemPrompt)
	}
}

func TestChat_HistoryAppendsInOrder(t *testing.T) {
	h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: "second reply"}})
	ctx := context.Background()

	if _, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: "first"}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	hist, err := h.convo.GetHistory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(hist) != 2 || hist[0].Role != conversation.RoleUser || hist[0].Content != "first" ||
		hist[1].Role != conversation.RoleAssistant || hist[1].Content != "second reply" {
		t.Errorf("unexpected history: %+v", hist)
	}
}

func TestChat_CreateInquiry_NonNumericBudget(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Calls: []adapter.FunctionCall{
		call(FunctionCreateInquiry, map[string]any{
			"contactName":  "Asha",
			"contactPhone": "9999999999",
			"contactEmail": "asha@x.com",
			"budgetMax":    "20k",
		}),
	}}}
	h := newHarness(t, model)
	ctx := context.Background()

	resp, err := h.assistant.Chat(ctx, ChatRequest{UserID: "u1", Message: "yes, submit it"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !resp.InquiryCreated {
		t.Fatalf("expected inquiry to be created, got %+v", resp)
	}
	inq, err := h.inquiries.GetByReferenceID(ctx, resp.ReferenceID)
	if err != nil || inq == nil {
		t.Fatalf("GetByReferenceID: %v %v", inq, err)
	}
	if inq.Details.BudgetMax != nil {
		t.Errorf("budget max = %v, want nil", *inq.Details.BudgetMax)
	}
	if !strings.Contains(inq.Details.MessageNote, "Budget: 20k") {
		t.Errorf("message note = %q", inq.Details.MessageNote)
	}
}

func TestChat_BudgetTrimsSuppliedContext(t *testing.T) {
	model := &fakeModel{resp: &adapter.GenerateResponse{Text: "reply"}}
	h := newHarness(t, model)
	h.assistant.budget = ctxpkg.NewBudget(wordCount{}, 4)

	rc := &ctxpkg.RagContext{
		CatalogLines: []string{"Rose Box", "Lily Vase", "Orchid Pot"},
		FAQLines:     []string{"Q: Delivery? / A: Yes."},
	}
	if _, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hi", Context: rc}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	prompt := model.lastReq.SystemPrompt
	if !strings.Contains(prompt, "Rose Box") || strings.Contains(prompt, "Lily Vase") {
		t.Errorf("expected catalog trimmed to one line:\n%s", prompt)
	}
	if strings.Contains(prompt, "Q: Delivery?") {
		t.Errorf("faq line exceeds its share and should be dropped:\n%s", prompt)
	}
	if len(rc.CatalogLines) != 3 {
		t.Error("supplied context was modified")
	}
}

type wordCount struct{}

func (wordCount) Count(s string) int { return len(strings.Fields(s)) }

func TestChat_PlainReplyVerbatim(t *testing.T) {
	text := "  Peonies are in season.\n\nShall I suggest a few?\n"
	h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: text}})

	resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "what's in season?"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message != text {
		t.Errorf("message = %q, want %q", resp.Message, text)
	}

	t.Run("blank text falls back", func(t *testing.T) {
		h := newHarness(t, &fakeModel{resp: &adapter.GenerateResponse{Text: " \n "}})
		resp, err := h.assistant.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "hmm"})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if resp.Message != RephraseReply {
			t.Errorf("message = %q, want rephrase reply", resp.Message)
		}
	})
}
