package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/pkg/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestRequestLogger(t *testing.T) {
	t.Run("logs request input", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewRequestLogger(logging.New(&buf, "json", "debug"))

		ctx := &middleware.Context{Input: "test input"}
		ctx.Set(middleware.MetadataRequestID, "req-42")
		if err := logger.Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		lines := decodeLines(t, &buf)
		if len(lines) != 1 {
			t.Fatalf("expected one log line, got %d", len(lines))
		}
		if lines[0]["prompt"] != "test input" || lines[0]["request_id"] != "req-42" {
			t.Errorf("unexpected log record %v", lines[0])
		}
	})

	t.Run("handles nil logger", func(t *testing.T) {
		logging.SetLogger(logging.Discard())
		logger := NewRequestLogger(nil)
		ctx := &middleware.Context{Input: "test"}
		if err := logger.Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestResponseLogger(t *testing.T) {
	t.Run("logs response content", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewResponseLogger(logging.New(&buf, "json", "info"))

		ctx := &middleware.Context{}
		err := logger.Execute(ctx, func(c *middleware.Context) error {
			c.Response = "test response"
			return nil
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		lines := decodeLines(t, &buf)
		if len(lines) != 1 || lines[0]["response"] != "test response" {
			t.Errorf("unexpected log records %v", lines)
		}
	})

	t.Run("logs error at warn", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewResponseLogger(logging.New(&buf, "json", "info"))

		failure := errors.New("all candidates failed")
		err := logger.Execute(&middleware.Context{}, func(c *middleware.Context) error {
			return failure
		})
		if err != failure {
			t.Errorf("error should pass through, got %v", err)
		}

		lines := decodeLines(t, &buf)
		if len(lines) != 1 || lines[0]["level"] != "WARN" {
			t.Errorf("unexpected log records %v", lines)
		}
	})
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("क", maxLoggedChars+10)
	got := truncate(long)
	if len([]rune(got)) != maxLoggedChars+3 {
		t.Errorf("unexpected truncated length %d", len([]rune(got)))
	}
	if truncate("short") != "short" {
		t.Error("short strings should be unchanged")
	}
}
