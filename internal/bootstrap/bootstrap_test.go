package bootstrap

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/sweetpotato0/keyara/config"
	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/middleware/limiter"
	"github.com/sweetpotato0/keyara/pkg/logging"
	"github.com/sweetpotato0/keyara/tokenizer"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{"KEYARA_TELEMETRY_DISABLED": "true"}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		v, ok := base[key]
		return v, ok
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestNewAssemblesApp(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"KEYARA_MODELS":            "gemini-1.5-flash-latest,openai:gpt-4o-mini,groq:llama-3.1-8b-instant,claude:claude-3-5-haiku-latest,cohere:command-r",
		"KEYARA_MAX_PROMPT_TOKENS": "256",
	})

	app, err := New(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close(context.Background())

	want := []string{
		"gemini:gemini-1.5-flash-latest",
		"openai:gpt-4o-mini",
		"groq:llama-3.1-8b-instant",
		"claude:claude-3-5-haiku-latest",
		"cohere:command-r",
	}
	if got := app.Generator.CandidateIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("candidates = %v, want %v", got, want)
	}
	for i, c := range app.Generator.Candidates() {
		if c.Provider.Name() != want[i] {
			t.Errorf("provider %d named %q, want %q", i, c.Provider.Name(), want[i])
		}
	}

	wantChain := []string{"ErrorHandler", "RequestID", "RequestLogger", "ResponseLogger", "CleanInput", "PromptValidator", "RateLimiter"}
	if got := app.Chain.Names(); !reflect.DeepEqual(got, wantChain) {
		t.Errorf("chain = %v, want %v", got, wantChain)
	}
	if !strings.Contains(app.Generator.SystemPrompt(), "Keyara") {
		t.Error("system prompt not rendered")
	}
}

func TestNewRejectsUnknownVendor(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"KEYARA_MODELS": "mistral:small"})
	if _, err := New(context.Background(), cfg, io.Discard); err == nil {
		t.Fatal("expected unknown vendor error")
	}
}

func TestNewWithoutRateLimit(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"KEYARA_RATE_LIMIT_PER_MINUTE": "0"})
	app, err := New(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close(context.Background())

	for _, name := range app.Chain.Names() {
		if name == "RateLimiter" {
			t.Fatal("rate limiter should be disabled")
		}
	}
}

type recordingGenerator struct {
	prompt string
}

func (r *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	r.prompt = prompt
	return "ok", nil
}

func TestChainKeepsPromptMarkup(t *testing.T) {
	const prompt = "Compare <p>2BHK</p> vs 3BHK rents in Mumbai,\n\n\n which   is cheaper?"
	tests := []struct {
		name      string
		normalize string
		want      string
	}{
		{"default", "false", prompt},
		{"normalized", "true", "2BHK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t, map[string]string{"KEYARA_NORMALIZE_PROMPT": tt.normalize})
			app, err := New(context.Background(), cfg, io.Discard)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer app.Close(context.Background())

			gen := &recordingGenerator{}
			mctx := middleware.NewContext(context.Background(), "  "+prompt+" ")
			if err := app.Chain.Execute(mctx, middleware.GenerateHandler(gen)); err != nil {
				t.Fatalf("chain: %v", err)
			}
			if gen.prompt != tt.want {
				t.Errorf("generator saw %q, want %q", gen.prompt, tt.want)
			}
		})
	}
}

func TestSystemPromptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	if err := os.WriteFile(path, []byte("{{.Assistant}} covers {{cities .Cities}}."), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := loadConfig(t, map[string]string{
		"KEYARA_SYSTEM_PROMPT_FILE": path,
		"KEYARA_CITIES":             "Pune,Goa",
	})

	got, err := SystemPrompt(cfg)
	if err != nil {
		t.Fatalf("SystemPrompt: %v", err)
	}
	if got != "Keyara covers Pune and Goa." {
		t.Errorf("unexpected prompt %q", got)
	}
}

func TestNewCounter(t *testing.T) {
	for _, name := range []string{"", "simple", "SIMPLE"} {
		c, err := NewCounter(name)
		if err != nil {
			t.Fatalf("NewCounter(%q): %v", name, err)
		}
		if _, ok := c.(tokenizer.Simple); !ok {
			t.Errorf("NewCounter(%q) = %T, want tokenizer.Simple", name, c)
		}
	}
}

func TestNewLimiter(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()

	lim, closeFn, err := NewLimiter(ctx, config.RateLimitConfig{PerMinute: 0}, log)
	if err != nil || lim != nil {
		t.Fatalf("disabled limiter: %v %v", lim, err)
	}
	_ = closeFn(ctx)

	lim, _, err = NewLimiter(ctx, config.RateLimitConfig{PerMinute: 5}, log)
	if err != nil {
		t.Fatalf("local limiter: %v", err)
	}
	if _, ok := lim.(*limiter.Local); !ok {
		t.Errorf("expected *limiter.Local, got %T", lim)
	}

	mr := miniredis.RunT(t)
	lim, closeFn, err = NewLimiter(ctx, config.RateLimitConfig{
		PerMinute:   5,
		RedisAddr:   mr.Addr(),
		RedisPrefix: "keyara:ratelimit:",
	}, log)
	if err != nil {
		t.Fatalf("redis limiter: %v", err)
	}
	defer closeFn(ctx)
	if _, ok := lim.(*limiter.Redis); !ok {
		t.Errorf("expected *limiter.Redis, got %T", lim)
	}
	if ok, err := lim.Allow(ctx, "k"); err != nil || !ok {
		t.Errorf("first request should pass: %v %v", ok, err)
	}

	if _, _, err := NewLimiter(ctx, config.RateLimitConfig{PerMinute: 5, RedisAddr: mr.Addr()}, log); err == nil {
		t.Error("expected validation error for missing prefix")
	}
}
