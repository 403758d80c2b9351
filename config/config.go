// Package config loads Keyara settings from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order of
// precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sweetpotato0/keyara/provider"
)

// DefaultModels is the candidate order used when KEYARA_MODELS is unset.
var DefaultModels = []string{
	"gemini-1.5-pro-latest",
	"gemini-1.5-pro-002",
	"gemini-1.5-pro-8b-latest",
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash-002",
	"gemini-1.5-flash-8b-latest",
}

// Config is the full service configuration.
type Config struct {
	Env             string           `yaml:"env"`
	Port            int              `yaml:"port"`
	Models          []string         `yaml:"models"`
	AllowedOrigins  []string         `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration    `yaml:"shutdown_timeout"`
	Providers       ProvidersConfig  `yaml:"providers"`
	Generation      GenerationConfig `yaml:"generation"`
	Prompt          PromptConfig     `yaml:"prompt"`
	RateLimit       RateLimitConfig  `yaml:"rate_limit"`
	Telemetry       TelemetryConfig  `yaml:"telemetry"`
	Log             LogConfig        `yaml:"log"`
}

// ProvidersConfig holds one API key per vendor.
type ProvidersConfig struct {
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GroqAPIKey      string `yaml:"groq_api_key"`
	CohereAPIKey    string `yaml:"cohere_api_key"`
}

// GenerationConfig holds sampling settings shared by every candidate.
type GenerationConfig struct {
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// PromptConfig controls the system prompt and the prompt guard.
type PromptConfig struct {
	SystemPromptFile string   `yaml:"system_prompt_file"`
	Cities           []string `yaml:"cities"`
	MaxPromptTokens  int      `yaml:"max_prompt_tokens"`
	Tokenizer        string   `yaml:"tokenizer"`
	// Normalize rewrites HTML prompts to text and collapses whitespace.
	Normalize        bool     `yaml:"normalize"`
}

// RateLimitConfig selects the limiter. An empty RedisAddr keeps limits in
// process.
type RateLimitConfig struct {
	PerMinute     int    `yaml:"per_minute"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// TelemetryConfig toggles tracing.
type TelemetryConfig struct {
	Disabled    bool    `yaml:"disabled"`
	SampleRatio float64 `yaml:"sample_ratio"`
	// Stdout dumps spans to stderr when no OTLP endpoint is set.
	Stdout      bool    `yaml:"stdout"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:             "development",
		Port:            5000,
		Models:          append([]string(nil), DefaultModels...),
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 10 * time.Second,
		Generation: GenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 1024,
		},
		Prompt: PromptConfig{
			Tokenizer: "simple",
		},
		RateLimit: RateLimitConfig{
			PerMinute:   60,
			RedisPrefix: "keyara:ratelimit:",
		},
		Telemetry: TelemetryConfig{
			SampleRatio: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads .env (if present), the YAML file named by KEYARA_CONFIG_FILE
// (if set) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a Config using lookup in place of the process environment.
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path, ok := lookup("KEYARA_CONFIG_FILE"); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	float := func(key string, dst *float64) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	str("KEYARA_ENV", &c.Env)
	num("PORT", &c.Port)
	list("KEYARA_MODELS", &c.Models)
	list("KEYARA_ALLOWED_ORIGINS", &c.AllowedOrigins)

	str("GEMINI_API_KEY", &c.Providers.GeminiAPIKey)
	str("OPENAI_API_KEY", &c.Providers.OpenAIAPIKey)
	str("ANTHROPIC_API_KEY", &c.Providers.AnthropicAPIKey)
	str("GROQ_API_KEY", &c.Providers.GroqAPIKey)
	str("COHERE_API_KEY", &c.Providers.CohereAPIKey)

	float("KEYARA_TEMPERATURE", &c.Generation.Temperature)
	num("KEYARA_MAX_OUTPUT_TOKENS", &c.Generation.MaxOutputTokens)

	str("KEYARA_SYSTEM_PROMPT_FILE", &c.Prompt.SystemPromptFile)
	list("KEYARA_CITIES", &c.Prompt.Cities)
	num("KEYARA_MAX_PROMPT_TOKENS", &c.Prompt.MaxPromptTokens)
	str("KEYARA_TOKENIZER", &c.Prompt.Tokenizer)
	boolean("KEYARA_NORMALIZE_PROMPT", &c.Prompt.Normalize)

	num("KEYARA_RATE_LIMIT_PER_MINUTE", &c.RateLimit.PerMinute)
	str("KEYARA_REDIS_ADDR", &c.RateLimit.RedisAddr)
	str("KEYARA_REDIS_PASSWORD", &c.RateLimit.RedisPassword)
	num("KEYARA_REDIS_DB", &c.RateLimit.RedisDB)

	boolean("KEYARA_TELEMETRY_DISABLED", &c.Telemetry.Disabled)
	float("KEYARA_TRACE_SAMPLE_RATIO", &c.Telemetry.SampleRatio)
	boolean("KEYARA_TRACE_STDOUT", &c.Telemetry.Stdout)

	str("KEYARA_LOG_LEVEL", &c.Log.Level)
	str("KEYARA_LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(c.Env)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Prompt.Tokenizer == "" {
		c.Prompt.Tokenizer = "simple"
	}
	if c.RateLimit.RedisPrefix == "" {
		c.RateLimit.RedisPrefix = "keyara:ratelimit:"
	}
}

// Validate checks the configuration with a Validator.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidatePort("port", c.Port)
	v.ValidateOneOf("env", c.Env, "development", "staging", "production", "test")
	v.RequireNonEmptyList("models", c.Models)
	v.ValidateCandidateIDs("models", c.Models)
	v.RequireNonEmptyList("allowed_origins", c.AllowedOrigins)
	v.ValidateOrigins("allowed_origins", c.AllowedOrigins)
	v.ValidateFloatRange("generation.temperature", c.Generation.Temperature, 0.0, 2.0)
	v.RequirePositive("generation.max_output_tokens", c.Generation.MaxOutputTokens)
	v.RequireNonNegative("prompt.max_prompt_tokens", c.Prompt.MaxPromptTokens)
	v.RequireNonNegative("rate_limit.per_minute", c.RateLimit.PerMinute)
	if c.RateLimit.RedisAddr != "" {
		v.ValidateDBNumber("rate_limit.redis_db", c.RateLimit.RedisDB)
	}
	v.ValidateFloatRange("telemetry.sample_ratio", c.Telemetry.SampleRatio, 0.0, 1.0)
	v.ValidateOneOf("log.level", c.Log.Level, "debug", "info", "warn", "warning", "error")
	v.ValidateOneOf("log.format", c.Log.Format, "json", "text")
	return v.Error()
}

// IsProduction reports whether Env is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// CandidateIDs returns Models in canonical vendor:model form.
func (c *Config) CandidateIDs() []string {
	ids := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		if id, err := provider.CanonicalID(m); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
