package export

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVExporter renders one row per inquiry for spreadsheets.
type CSVExporter struct{}

var csvHeader = []string{
	"reference_id", "status", "created_at", "contact_name", "contact_phone", "contact_email",
	"occasion", "budget_min", "budget_max", "delivery_area", "whatsapp_sent", "email_sent",
}

func (e *CSVExporter) Export(data ExportData) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, inq := range data.Inquiries {
		row := []string{
			inq.ReferenceID,
			string(inq.Status),
			inq.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			inq.Contact.Name,
			inq.Contact.Phone,
			inq.Contact.Email,
			inq.Details.Occasion,
			optionalNumber(inq.Details.BudgetMin),
			optionalNumber(inq.Details.BudgetMax),
			inq.Details.DeliveryArea,
			strconv.FormatBool(inq.WhatsAppSent),
			strconv.FormatBool(inq.EmailSent),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

func optionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
