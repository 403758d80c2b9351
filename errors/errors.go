package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrPromptTooLong indicates the prompt exceeds the configured token budget
	ErrPromptTooLong = fmt.Errorf("%w: prompt too long", ErrInvalidInput)

	// ErrProvidersExhausted indicates that no candidate produced a usable response
	ErrProvidersExhausted = errors.New("all providers exhausted")

	// ErrRateLimitExceeded indicates the caller exceeded its request budget
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// Attempt records the outcome of one candidate invocation.
type Attempt struct {
	Candidate string
	Err       error
	Duration  time.Duration
}

// ExhaustedError is returned when every candidate failed or returned nothing.
// It matches ErrProvidersExhausted with errors.Is and unwraps to the last
// per-candidate error.
type ExhaustedError struct {
	Attempts []Attempt
	Last     error
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrProvidersExhausted.Error() + ": no candidates configured"
	}
	tried := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		tried = append(tried, a.Candidate)
	}
	msg := fmt.Sprintf("%s after %d attempts (%s)", ErrProvidersExhausted, len(e.Attempts), strings.Join(tried, ", "))
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

// Is reports whether target is ErrProvidersExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrProvidersExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Is forwards to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New forwards to the standard library.
func New(text string) error {
	return errors.New(text)
}
