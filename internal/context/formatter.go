package context

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/bloomcart/bloomcart/internal/catalog"
)

// DefaultCurrency is used when no currency symbol is configured.
const DefaultCurrency = "₹"

// MaxDescriptionRunes bounds catalog item descriptions in context lines.
const MaxDescriptionRunes = 120

// DefaultPersona is the built-in consultant persona used when the
// settings carry no system prompt override.
const DefaultPersona = `You are the sales consultant for %s, a florist and event decoration studio.
Help customers choose arrangements, bouquets and decoration services for their occasion.
Be warm and persuasive, suggest suitable items from the catalog, and gently guide the
conversation towards collecting the details needed for an inquiry: occasion, preferred
colours, budget, delivery area, event date and time, and contact details.`

// DefaultBusinessName is used when the site settings carry no business name.
const DefaultBusinessName = "our studio"

var toneGuides = map[catalog.Tone]string{
	catalog.ToneFriendly:     "Use a friendly, approachable tone.",
	catalog.ToneProfessional: "Use a polished, professional tone.",
	catalog.ToneLuxurious:    "Use an elegant, luxurious tone that emphasises craftsmanship.",
	catalog.TonePlayful:      "Use a light, playful tone with a touch of humour.",
}

// Formatter renders storefront records into prompt-ready strings.
type Formatter struct{}

// NewFormatter creates a Formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// FormatItem renders a catalog item as
// "Title – price range – short description (Category)".
func (f *Formatter) FormatItem(it catalog.Item, currency string) string {
	parts := []string{strings.TrimSpace(it.Title), FormatPriceRange(it.PriceMin, it.PriceMax, currency)}
	if d := Shorten(strings.TrimSpace(it.Description), MaxDescriptionRunes); d != "" {
		parts = append(parts, d)
	}
	line := strings.Join(parts, " – ")
	if c := strings.TrimSpace(it.Category); c != "" {
		line += " (" + c + ")"
	}
	return line
}

// FormatService renders a service as "Title: description".
func (f *Formatter) FormatService(s catalog.Service) string {
	title := strings.TrimSpace(s.Title)
	desc := strings.TrimSpace(s.Description)
	if desc == "" {
		return title
	}
	return title + ": " + desc
}

// FormatFAQ renders a question/answer pair.
func (f *Formatter) FormatFAQ(q catalog.FAQ) string {
	return fmt.Sprintf("Q: %s / A: %s", strings.TrimSpace(q.Question), strings.TrimSpace(q.Answer))
}

// FormatPriceRange renders a price range such as "₹1,500-₹3,000".
func FormatPriceRange(lo, hi float64, currency string) string {
	switch {
	case lo <= 0 && hi <= 0:
		return "price on request"
	case lo <= 0:
		return "up to " + FormatAmount(hi, currency)
	case hi <= lo:
		return FormatAmount(lo, currency)
	default:
		return FormatAmount(lo, currency) + "-" + FormatAmount(hi, currency)
	}
}

// FormatAmount renders an amount with thousands separators. Whole amounts
// are printed without decimals.
func FormatAmount(v float64, currency string) string {
	if v == math.Trunc(v) {
		return currency + humanize.Comma(int64(v))
	}
	return currency + humanize.CommafWithDigits(v, 2)
}

// Shorten truncates s to at most n runes, appending an ellipsis when cut.
func Shorten(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// PromptInput carries everything the system prompt is composed from.
type PromptInput struct {
	// Persona overrides DefaultPersona when non-empty.
	Persona      string
	Tone         catalog.Tone
	BusinessName string
	Currency     string
	Memories     []string
	Context      *RagContext
}

// FormatSystemPrompt composes persona, tone, memory, storefront context and
// the trailing policy notes into one system prompt.
func (f *Formatter) FormatSystemPrompt(in PromptInput) string {
	var b strings.Builder

	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		name = DefaultBusinessName
	}
	if persona := strings.TrimSpace(in.Persona); persona != "" {
		b.WriteString(persona)
	} else {
		fmt.Fprintf(&b, DefaultPersona, name)
	}
	b.WriteString("\n\n")

	if g, ok := toneGuides[in.Tone]; ok {
		b.WriteString(g)
		b.WriteString("\n\n")
	}

	if len(in.Memories) > 0 {
		b.WriteString("## What you remember about this customer\n\n")
		for _, m := range in.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	if rc := in.Context; rc != nil {
		b.WriteString(formatBlock("Catalog", rc.CatalogLines))
		b.WriteString(formatBlock("Services", rc.ServiceLines))
		b.WriteString(formatBlock("Frequently asked questions", rc.FAQLines))
	}

	currency := in.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	b.WriteString("## Rules\n\n")
	fmt.Fprintf(&b, "- Quote all prices in %s.\n", currency)
	b.WriteString("- Before calling createInquiryRecord, summarise the details and get the customer's explicit confirmation to submit.\n")
	b.WriteString("- Call createInquiryRecord only once name, phone and email are known.\n")
	b.WriteString("- Use sendSummary only when the customer asks for a recap by email or WhatsApp.\n")
	b.WriteString("- Never invent items, prices, services or policies that are not listed above.\n")
	return b.String()
}

func formatBlock(title string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	b.WriteString("\n")
	return b.String()
}
