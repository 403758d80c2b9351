package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/keyara/provider"
)

// Vendor is the identifier prefix for Gemini candidates.
const Vendor = "gemini"

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Endpoint    string
	MaxTokens   int32
	// Temperature is sent when non-nil, zero included.
	Temperature *float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		MaxTokens:   1024,
		Temperature: provider.Ptr[float32](0.7),
	}
}

// Client owns one genai.Client shared by every Gemini candidate. It dials
// lazily on first use.
type Client struct {
	config *Config

	mu     sync.Mutex
	client *genai.Client
}

// NewClient creates a Gemini client wrapper.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig("")
	}
	return &Client{config: config}
}

// Factory returns a provider.Factory producing candidates bound to c.
func (c *Client) Factory() provider.Factory {
	return func(model string) (provider.Provider, error) {
		return c.Model(model), nil
	}
}

// Model returns a provider for one Gemini model.
func (c *Client) Model(name string) *Provider {
	p := &Provider{client: c, model: name}
	p.call = p.generateContent
	return p
}

// Close releases the underlying connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Client) dial(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	opts := []option.ClientOption{option.WithAPIKey(c.config.APIKey)}
	if c.config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.config.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	return client, nil
}

// Provider generates text with one Gemini model.
type Provider struct {
	client *Client
	model  string
	call   func(ctx context.Context, text string) (*genai.GenerateContentResponse, error)
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return Vendor + ":" + p.model
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, text string) (string, error) {
	resp, err := p.call(ctx, text)
	if err != nil {
		return "", fmt.Errorf("Gemini API error (%s): %w", p.model, err)
	}
	return firstText(resp)
}

func (p *Provider) generateContent(ctx context.Context, text string) (*genai.GenerateContentResponse, error) {
	client, err := p.client.dial(ctx)
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(p.model)
	p.client.config.apply(model)
	return model.GenerateContent(ctx, genai.Text(text))
}

func (c *Config) apply(model *genai.GenerativeModel) {
	if c.Temperature != nil {
		model.SetTemperature(*c.Temperature)
	}
	if c.MaxTokens > 0 {
		model.SetMaxOutputTokens(c.MaxTokens)
	}
}

// firstText returns the first text part of the first candidate, trimmed.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", provider.ErrEmptyResponse
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("%w: prompt blocked (%v)", provider.ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates in response", provider.ErrEmptyResponse)
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content parts in candidate", provider.ErrEmptyResponse)
	}
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			if s := strings.TrimSpace(string(t)); s != "" {
				return s, nil
			}
			break
		}
	}
	return "", fmt.Errorf("%w: first part has no text", provider.ErrEmptyResponse)
}
