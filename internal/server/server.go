// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/bloomcart/bloomcart/internal/assistant"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/conversation"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/metrics"
	"github.com/bloomcart/bloomcart/internal/notify"
)

// DefaultReplayLimit is how many messages the history endpoint returns.
const DefaultReplayLimit = 50

// Chatter runs chat turns.
type Chatter interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (*assistant.ChatResponse, error)
}

// ContextBuilder renders storefront context.
type ContextBuilder interface {
	Build(ctx context.Context, userID string) (*ctxpkg.RagContext, error)
}

// Conversations reads and clears per-user conversation data.
type Conversations interface {
	GetHistory(ctx context.Context, userID string, limit int) ([]conversation.Message, error)
	ClearUser(ctx context.Context, userID string) (conversation.Cleared, error)
}

// Inquiries is the inquiry store surface used by the handlers.
type Inquiries interface {
	ListByUser(ctx context.Context, userID string, page inquiry.Page) ([]inquiry.Inquiry, error)
	ListAll(ctx context.Context, page inquiry.Page) ([]inquiry.Inquiry, error)
	GetByReferenceID(ctx context.Context, ref string) (*inquiry.Inquiry, error)
	UpdateStatus(ctx context.Context, id string, p inquiry.Patch) error
}

// InquirySender re-triggers a notification for a stored inquiry.
type InquirySender interface {
	SendInquiry(ctx context.Context, inquiryID string, channel notify.Channel) (notify.Result, error)
}

// Pinger checks storage health.
type Pinger interface {
	Ping() error
}

// Deps are the collaborators of a Server. Metrics, Gatherer and DB are
// optional.
type Deps struct {
	Assistant     Chatter
	Builder       ContextBuilder
	Conversations Conversations
	Inquiries     Inquiries
	Sender        InquirySender
	DB            Pinger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        zerolog.Logger
	ReplayLimit   int
}

// Server routes HTTP requests to the chat pipeline.
type Server struct {
	d      Deps
	log    zerolog.Logger
	router *mux.Router
}

// New creates a Server and registers all routes.
func New(d Deps) *Server {
	if d.ReplayLimit <= 0 {
		d.ReplayLimit = DefaultReplayLimit
	}
	s := &Server{
		d:      d,
		log:    d.Logger.With().Str("component", "http").Logger(),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/chat", s.Chat()).Methods(http.MethodPost)
	api.HandleFunc("/users/{userID}/context", s.UserContext()).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/history", s.UserHistory()).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}/data", s.ClearUserData()).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userID}/inquiries", s.UserInquiries()).Methods(http.MethodGet)
	api.HandleFunc("/inquiries/{referenceID}", s.InquiryByReference()).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/inquiries", s.ListInquiries()).Methods(http.MethodGet)
	admin.HandleFunc("/inquiries/{id}/status", s.UpdateInquiryStatus()).Methods(http.MethodPatch)
	admin.HandleFunc("/inquiries/{id}/send/{channel}", s.SendInquiry()).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.Health()).Methods(http.MethodGet)
	if s.d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

// Handler returns the router wrapped in the logging middleware chain.
func (s *Server) Handler() http.Handler {
	return alice.New(
		hlog.NewHandler(s.log),
		hlog.RequestIDHandler("reqId", "Request-Id"),
		hlog.RemoteAddrHandler("ip"),
		hlog.UserAgentHandler("userAgent"),
		hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", d).
				Msg("request")
			s.d.Metrics.RecordHTTPRequest(r.Method, strconv.Itoa(status), d)
		}),
	).Then(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
