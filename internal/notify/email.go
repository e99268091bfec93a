package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// ErrEmailNotConfigured is the Result error when the API key is missing.
const ErrEmailNotConfigured = "Email not configured"

// DefaultEmailAPIURL is the transactional email API base URL.
const DefaultEmailAPIURL = "https://api.resend.com"

// EmailConfig holds the transactional email API settings. BusinessEmail is
// the recipient used when the RecipientSource yields none.
type EmailConfig struct {
	APIURL        string
	APIKey        string
	From          string
	BusinessEmail string
	Timeout       time.Duration
}

// RecipientSource resolves the business recipient address at send time.
type RecipientSource interface {
	BusinessEmail(ctx context.Context) (string, error)
}

var emailTemplate = template.Must(template.New("inquiry").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #333;">
  <h2 style="color: #b03a6f;">{{.Title}}</h2>
  {{- if .ReferenceID}}
  <p>Reference: <strong>{{.ReferenceID}}</strong></p>
  {{- end}}
  <table cellpadding="6" style="border-collapse: collapse;">
    {{- range .Fields}}
    <tr>
      <td style="font-weight: bold; vertical-align: top;">{{.Label}}</td>
      <td>{{.Value}}</td>
    </tr>
    {{- end}}
  </table>
</body>
</html>
`))

// RenderEmailHTML renders the HTML body for data.
func RenderEmailHTML(data InquiryData) (string, error) {
	if data.Title == "" {
		data.Title = "New inquiry"
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render email: %w", err)
	}
	return buf.String(), nil
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Email sends summaries through the Resend email API.
type Email struct {
	cfg        EmailConfig
	client     *resty.Client
	recipients RecipientSource
	status     StatusUpdater
	log        zerolog.Logger
}

// NewEmail creates an email dispatcher. recipients and status may be nil.
func NewEmail(cfg EmailConfig, recipients RecipientSource, status StatusUpdater, log zerolog.Logger) *Email {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultEmailAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Email{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.APIURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(cfg.Timeout),
		recipients: recipients,
		status:     status,
		log:        log.With().Str("component", "email").Logger(),
	}
}

func (e *Email) Channel() Channel { return ChannelEmail }

// Configured reports whether the API key is set.
func (e *Email) Configured() bool { return e.cfg.APIKey != "" }

func (e *Email) recipient(ctx context.Context) string {
	if e.recipients != nil {
		addr, err := e.recipients.BusinessEmail(ctx)
		if err != nil {
			e.log.Warn().Err(err).Msg("failed to read business email setting")
		} else if addr != "" {
			return addr
		}
	}
	return e.cfg.BusinessEmail
}

// Send posts one email. Failures leave the inquiry untouched; only a
// successful send updates it. It never retries.
func (e *Email) Send(ctx context.Context, inquiryID string, data InquiryData) Result {
	if !e.Configured() {
		e.log.Warn().Str("inquiryId", inquiryID).Msg("email dispatch skipped: not configured")
		return Result{Success: false, Error: ErrEmailNotConfigured}
	}
	to := e.recipient(ctx)
	if to == "" {
		e.log.Warn().Str("inquiryId", inquiryID).Msg("email dispatch skipped: no recipient")
		return Result{Success: false, Error: "Email recipient not configured"}
	}

	html, err := RenderEmailHTML(data)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetAuthToken(e.cfg.APIKey).
		SetBody(emailRequest{
			From:    e.cfg.From,
			To:      []string{to},
			Subject: data.Subject(),
			HTML:    html,
			Text:    data.Text(),
		}).
		Post("/emails")
	if err != nil {
		e.log.Error().Err(err).Str("inquiryId", inquiryID).Msg("email API request failed")
		return Result{Success: false, Error: fmt.Sprintf("Email request failed: %v", err)}
	}
	if resp.IsError() {
		e.log.Error().Str("inquiryId", inquiryID).Int("statusCode", resp.StatusCode()).
			Str("responseBody", resp.String()).Msg("email API returned an error")
		return Result{Success: false, Error: fmt.Sprintf("Email API error: status %d", resp.StatusCode())}
	}

	e.log.Info().Str("inquiryId", inquiryID).Str("to", to).Msg("email summary sent")
	if inquiryID != "" && e.status != nil {
		p := inquiry.Patch{Status: inquiry.StatusSent, EmailSent: inquiry.Bool(true)}
		if err := e.status.UpdateStatus(ctx, inquiryID, p); err != nil {
			e.log.Warn().Err(err).Str("inquiryId", inquiryID).Msg("failed to record email dispatch status")
		}
	}
	return Result{Success: true}
}
