// Package catalog holds the storefront read models the assistant draws on:
// catalog items, services, FAQs, site settings and the assistant settings.
package catalog

import "time"

// Item is a product in the flower catalog.
type Item struct {
	ID          string    `json:"id" toml:"id"`
	Title       string    `json:"title" toml:"title"`
	Description string    `json:"description" toml:"description"`
	Category    string    `json:"category" toml:"category"`
	PriceMin    float64   `json:"priceMin" toml:"price_min"`
	PriceMax    float64   `json:"priceMax" toml:"price_max"`
	Published   bool      `json:"published" toml:"published"`
	CreatedAt   time.Time `json:"createdAt" toml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" toml:"-"`
}

// Service is an offered service such as event decoration.
type Service struct {
	ID          string    `json:"id" toml:"id"`
	Title       string    `json:"title" toml:"title"`
	Description string    `json:"description" toml:"description"`
	Published   bool      `json:"published" toml:"published"`
	CreatedAt   time.Time `json:"createdAt" toml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" toml:"-"`
}

// FAQ is a question/answer pair. All FAQs are visible.
type FAQ struct {
	ID        string    `json:"id" toml:"id"`
	Question  string    `json:"question" toml:"question"`
	Answer    string    `json:"answer" toml:"answer"`
	SortOrder int       `json:"sortOrder" toml:"sort_order"`
	CreatedAt time.Time `json:"createdAt" toml:"-"`
	UpdatedAt time.Time `json:"updatedAt" toml:"-"`
}

// Tone is the conversational register configured for the assistant.
type Tone string

const (
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneLuxurious    Tone = "luxurious"
	TonePlayful      Tone = "playful"
)

// ValidTone returns true if t is a recognised tone.
func ValidTone(t Tone) bool {
	switch t {
	case ToneFriendly, ToneProfessional, ToneLuxurious, TonePlayful:
		return true
	}
	return false
}

// AISettingsKey is the singleton key of the assistant settings row.
const AISettingsKey = "bot"

// Bounds and default for AISettings.MaxMemoryChunks.
const (
	MinMemoryChunks     = 1
	MaxMemoryChunks     = 50
	DefaultMemoryChunks = 5
)

// AISettings configures the assistant.
type AISettings struct {
	Enabled         bool      `json:"enabled"`
	SystemPrompt    string    `json:"systemPrompt"`
	Tone            Tone      `json:"tone"`
	MaxMemoryChunks int       `json:"maxMemoryChunks"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DefaultAISettings is used when no settings row exists.
func DefaultAISettings() AISettings {
	return AISettings{
		Enabled:         true,
		Tone:            ToneFriendly,
		MaxMemoryChunks: DefaultMemoryChunks,
	}
}

// MemoryLimit returns MaxMemoryChunks clamped to the admin range,
// falling back to the default when unset.
func (s AISettings) MemoryLimit() int {
	switch {
	case s.MaxMemoryChunks <= 0:
		return DefaultMemoryChunks
	case s.MaxMemoryChunks > MaxMemoryChunks:
		return MaxMemoryChunks
	}
	return s.MaxMemoryChunks
}

// Site setting keys.
const (
	SettingBusinessEmail  = "businessEmail"
	SettingBusinessName   = "businessName"
	SettingCurrencySymbol = "currencySymbol"
)
