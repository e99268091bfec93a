package export

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// MarkdownExporter renders inquiries as a readable report.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(data ExportData) (string, error) {
	var b strings.Builder
	b.WriteString("# Inquiries\n\n")
	fmt.Fprintf(&b, "Generated %s. %d inquiries.\n\n", data.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), len(data.Inquiries))

	if len(data.Inquiries) == 0 {
		return b.String(), nil
	}

	counts := countByStatus(data.Inquiries)
	b.WriteString("| Status | Count |\n|---|---|\n")
	for _, st := range []inquiry.Status{inquiry.StatusNew, inquiry.StatusSent, inquiry.StatusFailed, inquiry.StatusClosed} {
		fmt.Fprintf(&b, "| %s | %d |\n", st, counts[st])
	}
	b.WriteString("\n")

	for _, inq := range data.Inquiries {
		b.WriteString(renderInquiry(inq))
	}
	return b.String(), nil
}

func renderInquiry(inq inquiry.Inquiry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s)\n\n", inq.ReferenceID, inq.Status)
	fmt.Fprintf(&b, "- Customer: %s, %s, %s\n", inq.Contact.Name, inq.Contact.Phone, inq.Contact.Email)
	fmt.Fprintf(&b, "- Created: %s\n", inq.CreatedAt.UTC().Format("2006-01-02 15:04"))

	d := inq.Details
	optional := []struct{ label, value string }{
		{"Occasion", d.Occasion},
		{"Colours", d.PreferredColors},
		{"Budget", budget(d.BudgetMin, d.BudgetMax)},
		{"Delivery area", d.DeliveryArea},
		{"Event", d.EventDateTime},
		{"Note", d.MessageNote},
		{"Items", strings.Join(d.SelectedCatalogItemIDs, ", ")},
	}
	for _, f := range optional {
		if f.value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", f.label, f.value)
		}
	}
	fmt.Fprintf(&b, "- Delivered: whatsapp=%t email=%t\n\n", inq.WhatsAppSent, inq.EmailSent)
	return b.String()
}

func budget(lo, hi *float64) string {
	switch {
	case lo != nil && hi != nil:
		return humanize.Commaf(*lo) + " - " + humanize.Commaf(*hi)
	case lo != nil:
		return "from " + humanize.Commaf(*lo)
	case hi != nil:
		return "up to " + humanize.Commaf(*hi)
	}
	return ""
}
