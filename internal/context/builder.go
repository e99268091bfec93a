package context

import (
	"context"
	"fmt"

	"github.com/bloomcart/bloomcart/internal/catalog"
)

// RagContext is the rendered storefront context for one chat turn.
type RagContext struct {
	CatalogLines []string `json:"catalogContext"`
	ServiceLines []string `json:"serviceContext"`
	FAQLines     []string `json:"faqContext"`
}

// Empty reports whether no context lines are present.
func (r *RagContext) Empty() bool {
	return r == nil || len(r.CatalogLines)+len(r.ServiceLines)+len(r.FAQLines) == 0
}

// Source is the read side of the catalog store.
type Source interface {
	ListPublishedItems(ctx context.Context) ([]catalog.Item, error)
	ListPublishedServices(ctx context.Context) ([]catalog.Service, error)
	ListFAQs(ctx context.Context) ([]catalog.FAQ, error)
	SiteSetting(ctx context.Context, key string) (string, error)
}

// Builder renders published catalog items, services and FAQs into
// prompt-ready lines.
type Builder struct {
	source    Source
	formatter *Formatter
}

// NewBuilder creates a Builder.
func NewBuilder(source Source, formatter *Formatter) *Builder {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &Builder{source: source, formatter: formatter}
}

// Build returns one line per published record. The user id is accepted for
// personalised retrieval but does not filter anything. Empty collections
// yield empty slices. No token budget is applied here; see Budget.
func (b *Builder) Build(ctx context.Context, _ string) (*RagContext, error) {
	currency, err := b.source.SiteSetting(ctx, catalog.SettingCurrencySymbol)
	if err != nil {
		return nil, fmt.Errorf("context: currency: %w", err)
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	items, err := b.source.ListPublishedItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("context: catalog: %w", err)
	}
	services, err := b.source.ListPublishedServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("context: services: %w", err)
	}
	faqs, err := b.source.ListFAQs(ctx)
	if err != nil {
		return nil, fmt.Errorf("context: faqs: %w", err)
	}

	out := &RagContext{
		CatalogLines: make([]string, 0, len(items)),
		ServiceLines: make([]string, 0, len(services)),
		FAQLines:     make([]string, 0, len(faqs)),
	}
	for _, it := range items {
		out.CatalogLines = append(out.CatalogLines, b.formatter.FormatItem(it, currency))
	}
	for _, sv := range services {
		out.ServiceLines = append(out.ServiceLines, b.formatter.FormatService(sv))
	}
	for _, f := range faqs {
		out.FAQLines = append(out.FAQLines, b.formatter.FormatFAQ(f))
	}

	return out, nil
}
