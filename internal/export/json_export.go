package export

import (
	"encoding/json"
	"time"

	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// JSONExporter renders inquiries as a structured JSON document.
type JSONExporter struct{}

type jsonOutput struct {
	GeneratedAt time.Time              `json:"generatedAt"`
	Total       int                    `json:"total"`
	ByStatus    map[inquiry.Status]int `json:"byStatus"`
	Inquiries   []inquiry.Inquiry      `json:"inquiries"`
}

func (e *JSONExporter) Export(data ExportData) (string, error) {
	list := data.Inquiries
	if list == nil {
		list = []inquiry.Inquiry{}
	}
	out := jsonOutput{
		GeneratedAt: data.GeneratedAt.UTC(),
		Total:       len(list),
		ByStatus:    countByStatus(list),
		Inquiries:   list,
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
