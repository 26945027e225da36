// Package tokenizer counts model tokens for page budgeting.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used by current OpenAI-compatible models.
const DefaultEncoding = "o200k_base"

// CharsPerToken is the estimate used when no encoder is available.
const CharsPerToken = 4

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Tokenizer counts tokens with a tiktoken encoding. A nil *Tokenizer falls back
// to the CharsPerToken estimate.
type Tokenizer struct {
	enc encoder
}

// New loads DefaultEncoding.
func New() (*Tokenizer, error) {
	return NewWithEncoding(DefaultEncoding)
}

// NewWithEncoding loads the named tiktoken encoding.
func NewWithEncoding(name string) (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", name, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.enc == nil {
		return (utf8.RuneCountInString(text) + CharsPerToken - 1) / CharsPerToken
	}
	return len(t.enc.Encode(text, nil, nil))
}

// PrefixLength returns how many characters of text are covered by its first
// maxTokens tokens.
func (t *Tokenizer) PrefixLength(text string, maxTokens int) (int, error) {
	if maxTokens < 0 {
		return 0, fmt.Errorf("negative token budget %d", maxTokens)
	}
	if t == nil || t.enc == nil {
		return min(maxTokens*CharsPerToken, utf8.RuneCountInString(text)), nil
	}

	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return utf8.RuneCountInString(text), nil
	}
	return utf8.RuneCountInString(t.enc.Decode(tokens[:maxTokens])), nil
}
