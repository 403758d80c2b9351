package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/sweetpotato0/keyara/provider"
)

// Vendor is the identifier prefix for Claude candidates.
const Vendor = "claude"

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int64
	// Temperature is sent when non-nil, zero included.
	Temperature *float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		MaxTokens:   1024,
		Temperature: provider.Ptr(0.7),
	}
}

type messenger interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Provider generates text with one Claude model.
type Provider struct {
	config   *Config
	model    string
	messages messenger
}

// New creates a Claude provider using the official SDK.
func New(config *Config, model string) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	client := anthropic.NewClient(options...)

	return &Provider{
		config:   config,
		model:    model,
		messages: &client.Messages,
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
	return Vendor + ":" + p.model
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, text string) (string, error) {
	if p.config.APIKey == "" {
		return "", fmt.Errorf("Claude API key not configured")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.config.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}
	if p.config.Temperature != nil {
		params.Temperature = param.NewOpt(*p.config.Temperature)
	}

	msg, err := p.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API error (%s): %w", p.model, err)
	}
	if msg == nil {
		return "", provider.ErrEmptyResponse
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: no text blocks", provider.ErrEmptyResponse)
	}
	return out, nil
}
