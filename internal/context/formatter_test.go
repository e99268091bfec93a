package context

import (
	"strings"
	"testing"

	"github.com/bloomcart/bloomcart/internal/catalog"
)

func TestFormatPriceRange(t *testing.T) {
	tests := []struct {
		lo, hi float64
		want   string
	}{
		{0, 0, "price on request"},
		{0, 2000, "up to ₹2,000"},
		{1500, 0, "₹1,500"},
		{1500, 1500, "₹1,500"},
		{1500, 25000, "₹1,500-₹25,000"},
		{99.5, 0, "₹99.5"},
	}
	for _, tt := range tests {
		if got := FormatPriceRange(tt.lo, tt.hi, "₹"); got != tt.want {
			t.Errorf("FormatPriceRange(%v, %v) = %q, want %q", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestShorten(t *testing.T) {
	if got := Shorten("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("é", 200)
	got := Shorten(long, MaxDescriptionRunes)
	if n := len([]rune(got)); n != MaxDescriptionRunes {
		t.Errorf("expected %d runes, got %d", MaxDescriptionRunes, n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

func TestFormatter_FormatItem_OmitsEmptyParts(t *testing.T) {
	f := NewFormatter()
	got := f.FormatItem(catalog.Item{Title: "Orchid"}, "₹")
	if got != "Orchid – price on request" {
		t.Errorf("got %q", got)
	}
}

func TestFormatter_FormatSystemPrompt(t *testing.T) {
	f := NewFormatter()
	rc := &RagContext{
		CatalogLines: []string{"Rose Box – ₹1,500"},
		ServiceLines: []string{"Stage Decor: full setup"},
		FAQLines:     []string{"Q: Delivery? / A: Yes"},
	}
	got := f.FormatSystemPrompt(PromptInput{
		Tone:         catalog.ToneLuxurious,
		BusinessName: "Petal & Co",
		Memories:     []string{"prefers lilies"},
		Context:      rc,
	})

	for _, want := range []string{
		"Petal & Co",
		"luxurious",
		"- prefers lilies",
		"## Catalog",
		"- Rose Box – ₹1,500",
		"## Services",
		"## Frequently asked questions",
		"Quote all prices in ₹",
		"explicit confirmation",
		"Never invent",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q:\n%s", want, got)
		}
	}
}

func TestFormatter_FormatSystemPrompt_PersonaOverride(t *testing.T) {
	f := NewFormatter()
	got := f.FormatSystemPrompt(PromptInput{Persona: "You are Bloom, the shop bot.", Currency: "$"})

	if !strings.HasPrefix(got, "You are Bloom, the shop bot.") {
		t.Errorf("expected persona override first, got %q", got)
	}
	if strings.Contains(got, "sales consultant") {
		t.Error("default persona should be replaced by the override")
	}
	if strings.Contains(got, "## Catalog") || strings.Contains(got, "remember about") {
		t.Error("empty blocks should be omitted")
	}
	if !strings.Contains(got, "Quote all prices in $") {
		t.Error("expected configured currency in the rules")
	}
}
