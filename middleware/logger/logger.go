package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/pkg/logging"
)

const maxLoggedChars = 200

// RequestLogger logs incoming prompts
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware. A nil logger uses
// the process-wide logger.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.logger.InfoContext(ctx.Context(), "generate request",
		"request_id", ctx.RequestID(),
		"prompt", truncate(ctx.Input),
		"prompt_chars", len([]rune(ctx.Input)),
	)
	return next(ctx)
}

// ResponseLogger logs outgoing responses and failures with their latency
type ResponseLogger struct {
	logger *slog.Logger
}

// NewResponseLogger creates a response logging middleware
func NewResponseLogger(logger *slog.Logger) *ResponseLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware")
	}
	return &ResponseLogger{logger: logger}
}

// Name returns the middleware name
func (m *ResponseLogger) Name() string {
	return "ResponseLogger"
}

// Execute logs the response
func (m *ResponseLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	err := next(ctx)
	elapsed := time.Since(start)

	if err != nil {
		m.logger.WarnContext(ctx.Context(), "generate failed",
			"request_id", ctx.RequestID(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return err
	}
	m.logger.InfoContext(ctx.Context(), "generate response",
		"request_id", ctx.RequestID(),
		"duration_ms", elapsed.Milliseconds(),
		"response", truncate(ctx.Response),
	)
	return nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedChars {
		return s
	}
	return string(r[:maxLoggedChars]) + "..."
}
