package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/bloomcart/bloomcart/internal/assistant"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/notify"
)

// ErrorReply is returned with status 200 when a chat turn fails, so the
// widget always has something to show.
const ErrorReply = "I encountered an error while processing your message. Please try again in a moment."

type chatRequest struct {
	UserID         string   `json:"userId"`
	Message        string   `json:"message"`
	CatalogContext []string `json:"catalogContext"`
	ServiceContext []string `json:"serviceContext"`
	FAQContext     []string `json:"faqContext"`
}

// ragContext returns the caller-supplied context, or nil when the request
// carried none of the three parts.
func (c chatRequest) ragContext() *ctxpkg.RagContext {
	if c.CatalogContext == nil && c.ServiceContext == nil && c.FAQContext == nil {
		return nil
	}
	rc := &ctxpkg.RagContext{
		CatalogLines: c.CatalogContext,
		ServiceLines: c.ServiceContext,
		FAQLines:     c.FAQContext,
	}
	if rc.CatalogLines == nil {
		rc.CatalogLines = []string{}
	}
	if rc.ServiceLines == nil {
		rc.ServiceLines = []string{}
	}
	if rc.FAQLines == nil {
		rc.FAQLines = []string{}
	}
	return rc
}

type statusRequest struct {
	Status       inquiry.Status `json:"status"`
	WhatsAppSent *bool          `json:"whatsappSent"`
	EmailSent    *bool          `json:"emailSent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Respond writes data as JSON with the given status.
func (s *Server) Respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode response")
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.Respond(w, r, status, errorResponse{Error: msg})
}

// Chat runs one chat turn.
func (s *Server) Chat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid JSON body")
			return
		}

		resp, err := s.d.Assistant.Chat(r.Context(), assistant.ChatRequest{
			UserID:  body.UserID,
			Message: body.Message,
			Context: body.ragContext(),
		})
		if errors.Is(err, assistant.ErrInvalidInput) {
			s.fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("userId", body.UserID).Msg("chat turn failed")
			s.Respond(w, r, http.StatusOK, assistant.ChatResponse{Message: ErrorReply})
			return
		}
		s.Respond(w, r, http.StatusOK, resp)
	}
}

// UserContext returns the storefront context the assistant would see.
func (s *Server) UserContext() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, err := s.d.Builder.Build(r.Context(), mux.Vars(r)["userID"])
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("build context")
			s.fail(w, r, http.StatusInternalServerError, "failed to build context")
			return
		}
		s.Respond(w, r, http.StatusOK, rc)
	}
}

func (s *Server) UserHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := s.d.Conversations.GetHistory(r.Context(), mux.Vars(r)["userID"], s.d.ReplayLimit)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("load history")
			s.fail(w, r, http.StatusInternalServerError, "failed to load history")
			return
		}
		s.Respond(w, r, http.StatusOK, msgs)
	}
}

func (s *Server) ClearUserData() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cleared, err := s.d.Conversations.ClearUser(r.Context(), mux.Vars(r)["userID"])
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("clear user")
			s.fail(w, r, http.StatusInternalServerError, "failed to clear user data")
			return
		}
		s.Respond(w, r, http.StatusOK, cleared)
	}
}

func (s *Server) UserInquiries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := s.page(w, r)
		if !ok {
			return
		}
		list, err := s.d.Inquiries.ListByUser(r.Context(), mux.Vars(r)["userID"], page)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("list user inquiries")
			s.fail(w, r, http.StatusInternalServerError, "failed to list inquiries")
			return
		}
		s.Respond(w, r, http.StatusOK, list)
	}
}

func (s *Server) InquiryByReference() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inq, err := s.d.Inquiries.GetByReferenceID(r.Context(), mux.Vars(r)["referenceID"])
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("get inquiry")
			s.fail(w, r, http.StatusInternalServerError, "failed to load inquiry")
			return
		}
		if inq == nil {
			s.fail(w, r, http.StatusNotFound, "inquiry not found")
			return
		}
		s.Respond(w, r, http.StatusOK, inq)
	}
}

func (s *Server) ListInquiries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := s.page(w, r)
		if !ok {
			return
		}
		list, err := s.d.Inquiries.ListAll(r.Context(), page)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("list inquiries")
			s.fail(w, r, http.StatusInternalServerError, "failed to list inquiries")
			return
		}
		s.Respond(w, r, http.StatusOK, list)
	}
}

func (s *Server) UpdateInquiryStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body statusRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.fail(w, r, http.StatusBadRequest, "invalid JSON body")
			return
		}
		err := s.d.Inquiries.UpdateStatus(r.Context(), mux.Vars(r)["id"], inquiry.Patch{
			Status:       body.Status,
			WhatsAppSent: body.WhatsAppSent,
			EmailSent:    body.EmailSent,
		})
		switch {
		case errors.Is(err, inquiry.ErrInvalidStatus):
			s.fail(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, inquiry.ErrNotFound):
			s.fail(w, r, http.StatusNotFound, "inquiry not found")
		case err != nil:
			hlog.FromRequest(r).Error().Err(err).Msg("update inquiry status")
			s.fail(w, r, http.StatusInternalServerError, "failed to update inquiry")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// SendInquiry re-triggers a notification for a stored inquiry.
func (s *Server) SendInquiry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		ch, err := notify.ParseChannel(vars["channel"])
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		res, err := s.d.Sender.SendInquiry(r.Context(), vars["id"], ch)
		if errors.Is(err, inquiry.ErrNotFound) {
			s.fail(w, r, http.StatusNotFound, "inquiry not found")
			return
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("send inquiry")
			s.fail(w, r, http.StatusInternalServerError, "failed to send inquiry")
			return
		}
		s.Respond(w, r, http.StatusOK, res)
	}
}

func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.d.DB != nil {
			if err := s.d.DB.Ping(); err != nil {
				s.Respond(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		s.Respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// page reads limit and offset query parameters. It writes a 400 and
// returns false when either is not a non-negative integer.
func (s *Server) page(w http.ResponseWriter, r *http.Request) (inquiry.Page, bool) {
	var p inquiry.Page
	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, http.StatusBadRequest, "invalid "+name)
			return p, false
		}
		*dst = n
	}
	return p, true
}
