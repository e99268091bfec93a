package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/assistant"
	"github.com/bloomcart/bloomcart/internal/catalog"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/conversation"
	"github.com/bloomcart/bloomcart/internal/db"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/metrics"
	"github.com/bloomcart/bloomcart/internal/notify"
)

type fakeChatter struct {
	got  assistant.ChatRequest
	resp *assistant.ChatResponse
	err  error
}

func (f *fakeChatter) Chat(_ context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeSender struct {
	id      string
	channel notify.Channel
}

func (f *fakeSender) SendInquiry(_ context.Context, id string, ch notify.Channel) (notify.Result, error) {
	if id == "missing" {
		return notify.Result{}, inquiry.ErrNotFound
	}
	f.id, f.channel = id, ch
	return notify.Result{Success: true}, nil
}

type testEnv struct {
	srv       *Server
	handler   http.Handler
	chat      *fakeChatter
	sender    *fakeSender
	convs     *conversation.Store
	inquiries *inquiry.Store
	catalog   *catalog.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	env := &testEnv{
		chat:      &fakeChatter{resp: &assistant.ChatResponse{Message: "hello"}},
		sender:    &fakeSender{},
		convs:     conversation.NewStore(database),
		inquiries: inquiry.NewStore(database),
		catalog:   catalog.NewStore(database),
	}
	reg := prometheus.NewRegistry()
	env.srv = New(Deps{
		Assistant:     env.chat,
		Builder:       ctxpkg.NewBuilder(env.catalog, ctxpkg.NewFormatter()),
		Conversations: env.convs,
		Inquiries:     env.inquiries,
		Sender:        env.sender,
		DB:            database,
		Metrics:       metrics.New(reg),
		Gatherer:      reg,
		Logger:        zerolog.Nop(),
	})
	env.handler = env.srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/chat", `{"userId":"u1","message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp assistant.ChatResponse
	decode(t, rec, &resp)
	if resp.Message != "hello" {
		t.Errorf("message = %q", resp.Message)
	}
	if env.chat.got.UserID != "u1" || env.chat.got.Message != "hi" {
		t.Errorf("request = %+v", env.chat.got)
	}
	if env.chat.got.Context != nil {
		t.Error("expected nil context when none supplied")
	}
	if rec.Header().Get("Request-Id") == "" {
		t.Error("expected Request-Id header")
	}
}

func TestChat_CallerContext(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/chat", `{"userId":"u1","message":"hi","catalogContext":["Rose box"]}`)
	rc := env.chat.got.Context
	if rc == nil {
		t.Fatal("expected caller context")
	}
	if len(rc.CatalogLines) != 1 || rc.ServiceLines == nil || rc.FAQLines == nil {
		t.Errorf("context = %+v", rc)
	}
}

func TestChat_Errors(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/api/chat", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d", rec.Code)
	}

	env.chat.err = assistant.ErrInvalidInput
	if rec := env.do(t, http.MethodPost, "/api/chat", `{"userId":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid input status = %d", rec.Code)
	}

	env.chat.err = errors.New("boom")
	rec := env.do(t, http.MethodPost, "/api/chat", `{"userId":"u1","message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("failure status = %d", rec.Code)
	}
	var resp assistant.ChatResponse
	decode(t, rec, &resp)
	if resp.Message != ErrorReply {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestUserContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.catalog.UpsertItem(ctx, catalog.Item{Title: "Rose box", PriceMin: 1200, Published: true}); err != nil {
		t.Fatal(err)
	}
	rec := env.do(t, http.MethodGet, "/api/users/u1/context", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rc ctxpkg.RagContext
	decode(t, rec, &rc)
	if len(rc.CatalogLines) != 1 || !strings.Contains(rc.CatalogLines[0], "Rose box") {
		t.Errorf("catalog = %v", rc.CatalogLines)
	}
}

func TestHistoryAndClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.convs.AppendMessage(ctx, "u1", conversation.RoleUser, "hi")
	env.convs.AppendMessage(ctx, "u1", conversation.RoleAssistant, "hello")

	rec := env.do(t, http.MethodGet, "/api/users/u1/history", "")
	var msgs []conversation.Message
	decode(t, rec, &msgs)
	if len(msgs) != 2 || msgs[0].Content != "hi" {
		t.Fatalf("history = %+v", msgs)
	}

	rec = env.do(t, http.MethodDelete, "/api/users/u1/data", "")
	var cleared conversation.Cleared
	decode(t, rec, &cleared)
	if cleared.Messages != 2 {
		t.Errorf("cleared = %+v", cleared)
	}

	rec = env.do(t, http.MethodGet, "/api/users/u1/history", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("history after clear = %s", rec.Body.String())
	}
}

func createInquiry(t *testing.T, env *testEnv, userID string) inquiry.Created {
	t.Helper()
	created, err := env.inquiries.Create(context.Background(), inquiry.NewInquiry{
		UserID:  userID,
		Contact: inquiry.Contact{Name: "Asha", Phone: "9999999999", Email: "asha@x.com"},
	})
	if err != nil {
		t.Fatalf("create inquiry: %v", err)
	}
	return created
}

func TestInquiryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	created := createInquiry(t, env, "u1")
	createInquiry(t, env, "u2")

	rec := env.do(t, http.MethodGet, "/api/inquiries/"+created.ReferenceID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup status = %d", rec.Code)
	}
	var inq inquiry.Inquiry
	decode(t, rec, &inq)
	if inq.ID != created.InquiryID || inq.Status != inquiry.StatusNew {
		t.Errorf("inquiry = %+v", inq)
	}

	if rec := env.do(t, http.MethodGet, "/api/inquiries/BC-NOPE", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rec.Code)
	}

	var list []inquiry.Inquiry
	decode(t, env.do(t, http.MethodGet, "/api/users/u1/inquiries", ""), &list)
	if len(list) != 1 {
		t.Errorf("user inquiries = %d", len(list))
	}

	decode(t, env.do(t, http.MethodGet, "/api/admin/inquiries?limit=1", ""), &list)
	if len(list) != 1 {
		t.Errorf("admin page = %d", len(list))
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/inquiries?offset=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad offset status = %d", rec.Code)
	}
}

func TestUpdateInquiryStatus(t *testing.T) {
	env := newTestEnv(t)
	created := createInquiry(t, env, "u1")
	path := "/api/admin/inquiries/" + created.InquiryID + "/status"

	if rec := env.do(t, http.MethodPatch, path, `{"status":"CLOSED","emailSent":true}`); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	got, err := env.inquiries.Get(context.Background(), created.InquiryID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != inquiry.StatusClosed || !got.EmailSent {
		t.Errorf("inquiry = %+v", got)
	}

	if rec := env.do(t, http.MethodPatch, path, `{"status":"LOST"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status code = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, "/api/admin/inquiries/nope/status", `{"status":"SENT"}`); rec.Code != http.StatusNotFound {
		t.Errorf("missing inquiry code = %d", rec.Code)
	}
}

func TestSendInquiry(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/admin/inquiries/abc/send/WhatsApp", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.sender.id != "abc" || env.sender.channel != notify.ChannelWhatsApp {
		t.Errorf("sender = %+v", env.sender)
	}

	if rec := env.do(t, http.MethodPost, "/api/admin/inquiries/abc/send/sms", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad channel code = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/admin/inquiries/missing/send/email", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing code = %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bloomcart_http_requests_total") {
		t.Error("expected http request counter in metrics output")
	}
}
