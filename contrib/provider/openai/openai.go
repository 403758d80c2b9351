package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/sweetpotato0/keyara/provider"
)

// Vendor is the identifier prefix for OpenAI candidates.
const Vendor = "openai"

// Config holds OpenAI provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Vendor      string
	MaxTokens   int64
	// Temperature is sent when non-nil, zero included.
	Temperature *float64
}

// WithBaseURL set BaseURL.
func (cfg *Config) WithBaseURL(url string) *Config {
	cfg.BaseURL = url
	return cfg
}

// WithAPIKey set api key.
func (cfg *Config) WithAPIKey(apiKey string) *Config {
	cfg.APIKey = apiKey
	return cfg
}

// DefaultConfig returns default OpenAI configuration
func DefaultConfig() *Config {
	return &Config{
		Vendor:      Vendor,
		MaxTokens:   1024,
		Temperature: provider.Ptr(0.7),
	}
}

// completer is the slice of the SDK the provider needs.
type completer interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Provider generates text with one chat-completions model.
type Provider struct {
	config *Config
	model  string
	chat   completer
}

// New creates a provider for model using the official SDK.
func New(config *Config, model string) *Provider {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Vendor == "" {
		config.Vendor = Vendor
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := openai.NewClient(options...)

	return &Provider{
		config: config,
		model:  model,
		chat:   &client.Chat.Completions,
	}
}

// Factory returns a provider.Factory for config.
func Factory(config *Config) provider.Factory {
	return func(model string) (provider.Provider, error) {
		return New(config, model), nil
	}
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return p.config.Vendor + ":" + p.model
}

// Generate implements provider.Provider. The text is sent as a single user
// message.
func (p *Provider) Generate(ctx context.Context, text string) (string, error) {
	if p.config.APIKey == "" {
		return "", fmt.Errorf("%s API key not configured", p.config.Vendor)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
		Model: openai.ChatModel(p.model),
	}
	if p.config.Temperature != nil {
		params.Temperature = openai.Float(*p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.config.MaxTokens)
	}

	completion, err := p.chat.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s API error (%s): %w", p.config.Vendor, p.model, err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", provider.ErrEmptyResponse)
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", provider.ErrEmptyResponse)
	}
	return content, nil
}
