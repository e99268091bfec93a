// Package notify delivers inquiry summaries to the business over WhatsApp
// and transactional email.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// Channel names an outbound notification channel.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// ParseChannel validates a channel name.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelWhatsApp, ChannelEmail:
		return c, nil
	default:
		return "", fmt.Errorf("notify: unknown channel %q; valid channels: whatsapp, email", s)
	}
}

// Result is the outcome of one dispatch attempt. Dispatch failures are
// reported here, never as Go errors.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Field is one labelled line of a summary.
type Field struct {
	Label string
	Value string
}

// InquiryData is the channel-neutral content of a notification.
type InquiryData struct {
	Title        string
	ReferenceID  string
	CustomerName string
	Fields       []Field
}

// Text renders the data as a plain-text chat message.
func (d InquiryData) Text() string {
	var b strings.Builder
	title := d.Title
	if title == "" {
		title = "New inquiry"
	}
	fmt.Fprintf(&b, "*%s*\n", title)
	if d.ReferenceID != "" {
		fmt.Fprintf(&b, "Reference: %s\n", d.ReferenceID)
	}
	b.WriteString("\n")
	for _, f := range d.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Subject renders an email subject line.
func (d InquiryData) Subject() string {
	s := "New inquiry"
	if d.CustomerName != "" {
		s += " from " + d.CustomerName
	}
	if d.ReferenceID != "" {
		s += " (" + d.ReferenceID + ")"
	}
	return s
}

// NotSpecified fills absent optional values.
const NotSpecified = "Not specified"

// OrNotSpecified returns s trimmed, or NotSpecified when it is blank.
func OrNotSpecified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return NotSpecified
	}
	return s
}

// FromInquiry builds notification content from a stored inquiry.
func FromInquiry(inq *inquiry.Inquiry) InquiryData {
	d := inq.Details
	return InquiryData{
		Title:        "New inquiry",
		ReferenceID:  inq.ReferenceID,
		CustomerName: inq.Contact.Name,
		Fields: []Field{
			{"Name", OrNotSpecified(inq.Contact.Name)},
			{"Phone", OrNotSpecified(inq.Contact.Phone)},
			{"Email", OrNotSpecified(inq.Contact.Email)},
			{"Occasion", OrNotSpecified(d.Occasion)},
			{"Preferred colours", OrNotSpecified(d.PreferredColors)},
			{"Budget", FormatBudget(d.BudgetMin, d.BudgetMax)},
			{"Delivery area", OrNotSpecified(d.DeliveryArea)},
			{"Event date/time", OrNotSpecified(d.EventDateTime)},
			{"Message", OrNotSpecified(d.MessageNote)},
			{"Selected items", OrNotSpecified(strings.Join(d.SelectedCatalogItemIDs, ", "))},
		},
	}
}

// FormatBudget renders an optional budget range.
func FormatBudget(lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return fmt.Sprintf("%.0f - %.0f", *lo, *hi)
	case lo != nil:
		return fmt.Sprintf("from %.0f", *lo)
	case hi != nil:
		return fmt.Sprintf("up to %.0f", *hi)
	default:
		return NotSpecified
	}
}

// StatusUpdater records dispatch outcomes on an inquiry.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, p inquiry.Patch) error
}

// Dispatcher sends InquiryData over one channel. When inquiryID is
// non-empty the dispatcher records the outcome on that inquiry.
type Dispatcher interface {
	Channel() Channel
	Configured() bool
	Send(ctx context.Context, inquiryID string, data InquiryData) Result
}
