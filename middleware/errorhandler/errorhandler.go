package errorhandler

import (
	"github.com/sweetpotato0/keyara/errors"
	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/pkg/metrics"
)

// Error kinds reported by Classify.
const (
	KindInvalidInput  = "invalid_input"
	KindPromptTooLong = "prompt_too_long"
	KindRateLimited   = "rate_limited"
	KindExhausted     = "exhausted"
	KindInternal      = "internal"
)

// ErrorHandlerFunc handles errors
type ErrorHandlerFunc func(error) error

// ErrorHandler handles errors in the middleware chain
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler creates an error handling middleware
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute handles errors from downstream middlewares
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err != nil && m.handler != nil {
		return m.handler(err)
	}
	return err
}

// Classify maps an error to one of the Kind constants.
func Classify(err error) string {
	switch {
	case errors.Is(err, errors.ErrPromptTooLong):
		return KindPromptTooLong
	case errors.Is(err, errors.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, errors.ErrRateLimitExceeded):
		return KindRateLimited
	case errors.Is(err, errors.ErrProvidersExhausted):
		return KindExhausted
	default:
		return KindInternal
	}
}

// CountRejections returns a handler that records requests refused before
// generation. Exhaustion is counted by the generator itself.
func CountRejections(rec metrics.Recorder) ErrorHandlerFunc {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return func(err error) error {
		switch kind := Classify(err); kind {
		case KindInvalidInput, KindPromptTooLong, KindRateLimited:
			rec.IncRejected(kind)
		}
		return err
	}
}

// Internalize hides unclassified failures behind ErrInternal while keeping
// the cause in the chain.
func Internalize(err error) error {
	if Classify(err) != KindInternal || errors.Is(err, errors.ErrInternal) {
		return err
	}
	return &internalError{cause: err}
}

type internalError struct {
	cause error
}

func (e *internalError) Error() string {
	return errors.ErrInternal.Error() + ": " + e.cause.Error()
}

func (e *internalError) Is(target error) bool {
	return target == errors.ErrInternal
}

func (e *internalError) Unwrap() error {
	return e.cause
}

// Chain composes handlers left to right.
func Chain(handlers ...ErrorHandlerFunc) ErrorHandlerFunc {
	return func(err error) error {
		for _, h := range handlers {
			if h == nil {
				continue
			}
			if err = h(err); err == nil {
				return nil
			}
		}
		return err
	}
}
