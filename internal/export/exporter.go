// Package export renders stored inquiries for hand-off to other tools.
package export

import (
	"sort"
	"time"

	"github.com/bloomcart/bloomcart/internal/inquiry"
)

// ExportData is passed to every Exporter.
type ExportData struct {
	GeneratedAt time.Time
	Inquiries   []inquiry.Inquiry
}

// Exporter renders ExportData to a string in a specific format.
type Exporter interface {
	Export(data ExportData) (string, error)
}

var registry = map[string]Exporter{
	"json":     &JSONExporter{},
	"markdown": &MarkdownExporter{},
	"csv":      &CSVExporter{},
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the supported format names, sorted.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	sort.Strings(formats)
	return formats
}

func countByStatus(list []inquiry.Inquiry) map[inquiry.Status]int {
	counts := make(map[inquiry.Status]int)
	for _, inq := range list {
		counts[inq.Status]++
	}
	return counts
}
