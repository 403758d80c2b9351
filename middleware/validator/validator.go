package validator

import (
	"fmt"
	"strings"

	"github.com/sweetpotato0/keyara/errors"
	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/tokenizer"
)

// PromptValidator trims the prompt and rejects it when it is blank or
// exceeds the token budget.
type PromptValidator struct {
	counter   tokenizer.Counter
	maxTokens int
}

// Option configures a PromptValidator.
type Option func(*PromptValidator)

// WithMaxTokens rejects prompts longer than max tokens as counted by c.
// A max of zero or less disables the check.
func WithMaxTokens(c tokenizer.Counter, max int) Option {
	return func(v *PromptValidator) {
		v.counter = c
		v.maxTokens = max
	}
}

// NewPromptValidator creates the prompt validation middleware.
func NewPromptValidator(opts ...Option) *PromptValidator {
	v := &PromptValidator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.counter == nil {
		v.counter = tokenizer.NewSimple()
	}
	return v
}

// Name returns the middleware name
func (m *PromptValidator) Name() string {
	return "PromptValidator"
}

// Validate applies the checks to prompt and returns the trimmed prompt.
func (m *PromptValidator) Validate(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", errors.ErrInvalidInput)
	}
	if m.maxTokens > 0 {
		if n := m.counter.CountTokens(prompt); n > m.maxTokens {
			return "", fmt.Errorf("%w: %d tokens exceeds limit of %d", errors.ErrPromptTooLong, n, m.maxTokens)
		}
	}
	return prompt, nil
}

// Execute validates and trims the input
func (m *PromptValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	prompt, err := m.Validate(ctx.Input)
	if err != nil {
		return err
	}
	ctx.Input = prompt
	return next(ctx)
}
