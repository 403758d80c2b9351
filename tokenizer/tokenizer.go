// Package tokenizer counts prompt tokens for the length guard.
package tokenizer

import (
	"strings"
	"unicode"
)

// Counter reports how many tokens a text consumes.
type Counter interface {
	CountTokens(text string) int
}

// Tokenizer is a Counter that can also produce token ids.
type Tokenizer interface {
	Counter
	Encode(text string) []int
}

var _ Tokenizer = Simple{}

// Simple splits text on word boundaries without a vocabulary.
//
// Rules:
//   - letters and digits form one token per run
//   - Han and Devanagari runes are one token each
//   - every other non-space rune is its own token
type Simple struct{}

// NewSimple returns the vocabulary-free tokenizer.
func NewSimple() Simple {
	return Simple{}
}

func (Simple) split(s string) []string {
	var toks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.In(r, unicode.Han, unicode.Devanagari):
			flush()
			toks = append(toks, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			buf.WriteRune(r)
		default:
			flush()
			toks = append(toks, string(r))
		}
	}
	flush()
	return toks
}

// Encode returns positional ids. Simple keeps no vocabulary, so ids only
// identify a token's position within text.
func (t Simple) Encode(text string) []int {
	toks := t.split(text)
	ids := make([]int, len(toks))
	for i := range toks {
		ids[i] = i + 1
	}
	return ids
}

// CountTokens implements Counter.
func (t Simple) CountTokens(text string) int {
	return len(t.split(text))
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(text string) int

// CountTokens implements Counter.
func (f CounterFunc) CountTokens(text string) int {
	return f(text)
}
