// Package bootstrap assembles the generator, middleware chain and ambient
// services from a config.Config. Both binaries share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetpotato0/keyara/config"
	"github.com/sweetpotato0/keyara/contrib/provider/claude"
	"github.com/sweetpotato0/keyara/contrib/provider/cohere"
	"github.com/sweetpotato0/keyara/contrib/provider/gemini"
	"github.com/sweetpotato0/keyara/contrib/provider/groq"
	"github.com/sweetpotato0/keyara/contrib/provider/openai"
	"github.com/sweetpotato0/keyara/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/keyara/generator"
	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/middleware/enricher"
	"github.com/sweetpotato0/keyara/middleware/errorhandler"
	"github.com/sweetpotato0/keyara/middleware/limiter"
	"github.com/sweetpotato0/keyara/middleware/logger"
	"github.com/sweetpotato0/keyara/middleware/validator"
	"github.com/sweetpotato0/keyara/pkg/logging"
	"github.com/sweetpotato0/keyara/pkg/metrics"
	"github.com/sweetpotato0/keyara/pkg/telemetry"
	"github.com/sweetpotato0/keyara/pkg/version"
	"github.com/sweetpotato0/keyara/prompt"
	"github.com/sweetpotato0/keyara/provider"
	"github.com/sweetpotato0/keyara/tokenizer"
)

const serviceName = "keyara"

// App holds the assembled components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Generator *generator.Generator
	Chain     *middleware.MiddlewareChain
	Metrics   *metrics.Prom

	closers []func(context.Context) error
}

// New builds the App. logOut receives log records; the MCP binary passes
// stderr because stdout carries the protocol.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	logging.SetLogger(logging.New(logOut, cfg.Log.Format, cfg.Log.Level))
	app := &App{
		Config:  cfg,
		Logger:  logging.WithComponent("bootstrap"),
		Metrics: metrics.NewProm(serviceName),
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version.BuildVersion,
		Environment:    cfg.Env,
		Disable:        cfg.Telemetry.Disabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Stdout:         cfg.Telemetry.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	app.closers = append(app.closers, shutdownTracing)

	registry, closeProviders := NewRegistry(cfg)
	app.closers = append(app.closers, closeProviders)

	candidates, err := registry.Build(cfg.CandidateIDs())
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("build candidates: %w", err)
	}
	app.warnMissingKeys(candidates)

	system, err := SystemPrompt(cfg)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.Generator = generator.New(candidates,
		generator.WithSystemPrompt(system),
		generator.WithMetrics(app.Metrics),
	)

	chain, closeChain, err := app.newChain(ctx)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.Chain = chain
	app.closers = append(app.closers, closeChain)

	app.Logger.Info("keyara ready",
		"candidates", app.Generator.CandidateIDs(),
		"middlewares", chain.Names(),
		"env", cfg.Env,
	)
	return app, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewRegistry registers every vendor adapter with the keys from cfg. The
// returned func closes the shared Gemini connection.
func NewRegistry(cfg *config.Config) (*provider.Registry, func(context.Context) error) {
	gen := cfg.Generation

	geminiCfg := gemini.DefaultConfig(cfg.Providers.GeminiAPIKey)
	geminiCfg.MaxTokens = int32(gen.MaxOutputTokens)
	geminiCfg.Temperature = provider.Ptr(float32(gen.Temperature))
	geminiClient := gemini.NewClient(geminiCfg)

	openaiCfg := openai.DefaultConfig().WithAPIKey(cfg.Providers.OpenAIAPIKey)
	openaiCfg.MaxTokens = int64(gen.MaxOutputTokens)
	openaiCfg.Temperature = provider.Ptr(gen.Temperature)

	groqCfg := groq.DefaultConfig(cfg.Providers.GroqAPIKey)
	groqCfg.MaxTokens = int64(gen.MaxOutputTokens)
	groqCfg.Temperature = provider.Ptr(gen.Temperature)

	claudeCfg := claude.DefaultConfig(cfg.Providers.AnthropicAPIKey)
	claudeCfg.MaxTokens = int64(gen.MaxOutputTokens)
	claudeCfg.Temperature = provider.Ptr(gen.Temperature)

	cohereCfg := cohere.DefaultConfig(cfg.Providers.CohereAPIKey)
	cohereCfg.MaxTokens = gen.MaxOutputTokens
	cohereCfg.Temperature = provider.Ptr(gen.Temperature)

	reg := provider.NewRegistry()
	for vendor, factory := range map[string]provider.Factory{
		gemini.Vendor: geminiClient.Factory(),
		openai.Vendor: openai.Factory(openaiCfg),
		groq.Vendor:   groq.Factory(groqCfg),
		claude.Vendor: claude.Factory(claudeCfg),
		cohere.Vendor: cohere.Factory(cohereCfg),
	} {
		// Vendors are distinct constants, so registration cannot collide.
		_ = reg.Register(vendor, factory)
	}
	return reg, func(context.Context) error { return geminiClient.Close() }
}

// SystemPrompt renders the configured system prompt.
func SystemPrompt(cfg *config.Config) (string, error) {
	persona := prompt.DefaultPersona()
	if len(cfg.Prompt.Cities) > 0 {
		persona.Cities = cfg.Prompt.Cities
	}
	if cfg.Prompt.SystemPromptFile != "" {
		text, err := prompt.SystemPromptFromFile(cfg.Prompt.SystemPromptFile, persona)
		if err != nil {
			return "", fmt.Errorf("render system prompt file: %w", err)
		}
		return text, nil
	}
	return prompt.SystemPrompt(persona)
}

// NewCounter returns the token counter named by cfg.Prompt.Tokenizer.
func NewCounter(name string) (tokenizer.Counter, error) {
	if name == "" || strings.EqualFold(name, "simple") {
		return tokenizer.NewSimple(), nil
	}
	return tiktoken.New(name)
}

// NewLimiter returns nil when rate limiting is disabled.
func NewLimiter(ctx context.Context, cfg config.RateLimitConfig, log *slog.Logger) (limiter.Limiter, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if cfg.PerMinute <= 0 {
		return nil, noop, nil
	}
	if cfg.RedisAddr == "" {
		return limiter.NewLocal(cfg.PerMinute), noop, nil
	}

	if err := config.ValidateRedisConfig(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPrefix); err != nil {
		return nil, noop, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, rate limiter will allow requests until it recovers",
			"addr", cfg.RedisAddr, "error", err)
	}
	return limiter.NewRedis(client, cfg.PerMinute, limiter.WithPrefix(cfg.RedisPrefix)),
		func(context.Context) error { return client.Close() }, nil
}

func (a *App) newChain(ctx context.Context) (*middleware.MiddlewareChain, func(context.Context) error, error) {
	counter, err := NewCounter(a.Config.Prompt.Tokenizer)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizer: %w", err)
	}
	lim, closeLimiter, err := NewLimiter(ctx, a.Config.RateLimit, a.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	chain := middleware.NewChain(
		errorhandler.NewErrorHandler(errorhandler.Chain(
			errorhandler.CountRejections(a.Metrics),
			errorhandler.Internalize,
		)),
		enricher.RequestID(),
		logger.NewRequestLogger(nil),
		logger.NewResponseLogger(nil),
		enricher.CleanInput(),
	)
	if a.Config.Prompt.Normalize {
		chain.Add(enricher.NormalizeInput())
	}
	chain.Add(validator.NewPromptValidator(validator.WithMaxTokens(counter, a.Config.Prompt.MaxPromptTokens)))
	if lim != nil {
		chain.Add(limiter.NewRateLimiter(lim, nil))
	}
	return chain, closeLimiter, nil
}

func (a *App) warnMissingKeys(candidates []provider.Candidate) {
	keys := map[string]string{
		gemini.Vendor: a.Config.Providers.GeminiAPIKey,
		openai.Vendor: a.Config.Providers.OpenAIAPIKey,
		groq.Vendor:   a.Config.Providers.GroqAPIKey,
		claude.Vendor: a.Config.Providers.AnthropicAPIKey,
		cohere.Vendor: a.Config.Providers.CohereAPIKey,
	}
	warned := map[string]bool{}
	for _, c := range candidates {
		vendor, _, err := provider.ParseID(c.ID)
		if err != nil || warned[vendor] || keys[vendor] != "" {
			continue
		}
		warned[vendor] = true
		a.Logger.Warn("api key not configured, candidates of this vendor will fail", "vendor", vendor)
	}
}
