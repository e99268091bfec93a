package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// ErrWhatsAppNotConfigured is the Result error when credentials are missing.
const ErrWhatsAppNotConfigured = "WhatsApp not configured"

// WhatsAppConfig holds the chat-message API credentials. APIURL is the full
// messages endpoint; BusinessNumber is the destination.
type WhatsAppConfig struct {
	APIURL         string
	Token          string
	BusinessNumber string
	Timeout        time.Duration
}

type whatsappText struct {
	Body string `json:"body"`
}

type whatsappMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsappText `json:"text"`
}

// WhatsApp sends summaries through the WhatsApp Cloud messages API.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *resty.Client
	status StatusUpdater
	log    zerolog.Logger
}

// NewWhatsApp creates a WhatsApp dispatcher. status may be nil when no
// inquiry bookkeeping is wanted.
func NewWhatsApp(cfg WhatsAppConfig, status StatusUpdater, log zerolog.Logger) *WhatsApp {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &WhatsApp{
		cfg: cfg,
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.Timeout),
		status: status,
		log:    log.With().Str("component", "whatsapp").Logger(),
	}
}

func (w *WhatsApp) Channel() Channel { return ChannelWhatsApp }

// Configured reports whether URL, token and destination number are all set.
func (w *WhatsApp) Configured() bool {
	return w.cfg.APIURL != "" && w.cfg.Token != "" && w.cfg.BusinessNumber != ""
}

// Send posts one text message. It never retries.
func (w *WhatsApp) Send(ctx context.Context, inquiryID string, data InquiryData) Result {
	if !w.Configured() {
		w.log.Warn().Str("inquiryId", inquiryID).Msg("WhatsApp dispatch skipped: not configured")
		w.mark(ctx, inquiryID, inquiry.Patch{Status: inquiry.StatusFailed})
		return Result{Success: false, Error: ErrWhatsAppNotConfigured}
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetAuthToken(w.cfg.Token).
		SetBody(whatsappMessage{
			MessagingProduct: "whatsapp",
			To:               w.cfg.BusinessNumber,
			Type:             "text",
			Text:             whatsappText{Body: data.Text()},
		}).
		Post(w.cfg.APIURL)
	if err != nil {
		w.log.Error().Err(err).Str("inquiryId", inquiryID).Msg("WhatsApp API request failed")
		w.mark(ctx, inquiryID, inquiry.Patch{Status: inquiry.StatusFailed})
		return Result{Success: false, Error: fmt.Sprintf("WhatsApp request failed: %v", err)}
	}
	if resp.IsError() {
		w.log.Error().Str("inquiryId", inquiryID).Int("statusCode", resp.StatusCode()).
			Str("responseBody", resp.String()).Msg("WhatsApp API returned an error")
		w.mark(ctx, inquiryID, inquiry.Patch{Status: inquiry.StatusFailed})
		return Result{Success: false, Error: fmt.Sprintf("WhatsApp API error: status %d", resp.StatusCode())}
	}

	w.log.Info().Str("inquiryId", inquiryID).Str("referenceId", data.ReferenceID).Msg("WhatsApp summary sent")
	w.mark(ctx, inquiryID, inquiry.Patch{Status: inquiry.StatusSent, WhatsAppSent: inquiry.Bool(true)})
	return Result{Success: true}
}

func (w *WhatsApp) mark(ctx context.Context, inquiryID string, p inquiry.Patch) {
	if inquiryID == "" || w.status == nil {
		return
	}
	if err := w.status.UpdateStatus(ctx, inquiryID, p); err != nil {
		w.log.Warn().Err(err).Str("inquiryId", inquiryID).Str("status", string(p.Status)).
			Msg("failed to record WhatsApp dispatch status")
	}
}
