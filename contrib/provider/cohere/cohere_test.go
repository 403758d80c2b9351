package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sweetpotato0/keyara/provider"
)

func newServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer co-test" {
			t.Errorf("missing bearer token")
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(baseURL string) *Provider {
	cfg := DefaultConfig("co-test")
	cfg.BaseURL = baseURL
	return New(cfg, "command-r")
}

func TestGenerateSuccess(t *testing.T) {
	var seen chatRequest
	srv := newServer(t, http.StatusOK, `{"message":{"content":[{"type":"text","text":" Hyderabad rents start near ₹10,000. "}]},"finish_reason":"COMPLETE"}`, &seen)

	got, err := newProvider(srv.URL).Generate(context.Background(), "SYSTEM\n\nRent in Hyderabad?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hyderabad rents start near ₹10,000." {
		t.Errorf("unexpected text %q", got)
	}
	if seen.Model != "command-r" || len(seen.Messages) != 1 || seen.Messages[0].Role != "user" {
		t.Errorf("unexpected request %+v", seen)
	}
}

func TestGenerateAPIError(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, `{"message":"trial key rate limited"}`, nil)
	_, err := newProvider(srv.URL).Generate(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "trial key rate limited") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"message":{"content":[]},"finish_reason":"MAX_TOKENS"}`, nil)
	_, err := newProvider(srv.URL).Generate(context.Background(), "hi")
	if !errors.Is(err, provider.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateRequiresKey(t *testing.T) {
	p := New(DefaultConfig(""), "")
	if _, err := p.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected missing key error")
	}
	if p.Name() != "cohere:command-r" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

func TestGenerateSendsZeroTemperature(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&seen)
		_, _ = w.Write([]byte(`{"message":{"content":[{"type":"text","text":"ok"}]}}`))
	}))
	t.Cleanup(srv.Close)

	p := newProvider(srv.URL)
	p.config.Temperature = provider.Ptr(0.0)
	if _, err := p.Generate(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := seen["temperature"]; !ok || v != 0.0 {
		t.Errorf("temperature 0 not sent: %v", seen)
	}
}
