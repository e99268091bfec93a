// Package context assembles the storefront context injected into the
// assistant's system prompt.
package context

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Encoding is the tiktoken encoding used for budget estimates. Provider
// tokenizers differ, so counts are approximate for every model.
const Encoding = "cl100k_base"

// Counter counts tokens in a string.
type Counter interface {
	Count(s string) int
}

// Tokenizer counts tokens with tiktoken.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer loads the Encoding tables. The first call may download
// them, so callers should treat an error as "no budget" rather than fatal.
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("context: tokenizer: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in s plus one for the line break the
// prompt adds after each context line.
func (t *Tokenizer) Count(s string) int {
	if s == "" {
		return 0
	}
	return len(t.enc.Encode(s, nil, nil)) + 1
}
