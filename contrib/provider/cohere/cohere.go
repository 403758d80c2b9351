package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sweetpotato0/keyara/provider"
)

const (
	// Vendor is the identifier prefix for Cohere candidates.
	Vendor = "cohere"

	defaultBaseURL = "https://api.cohere.com/v2"
)

// Config holds Cohere provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
}

// DefaultConfig returns default Cohere configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     defaultBaseURL,
		MaxTokens:   1024,
		Temperature: provider.Ptr(0.7),
		Timeout:     60 * time.Second,
	}
}

// Provider generates text with one Cohere chat model over REST.
type Provider struct {
	config *Config
	model  string
	client *http.Client
}

// New creates a Cohere provider for model.
func New(config *Config, model string) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if model == "" {
		model = "command-r"
	}
	return &Provider{
		config: config,
		model:  model,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// Factory returns a provider.Factory for config.
func Factory(config *Config) provider.Factory {
	return func(model string) (provider.Provider, error) {
		return New(config, model), nil
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Name implements provider.Provider.
func (p *Provider) Name() string {
	return Vendor + ":" + p.model
}

// Generate implements provider.Provider.
func (p *Provider) Generate(ctx context.Context, text string) (string, error) {
	if p.config.APIKey == "" {
		return "", fmt.Errorf("Cohere API key not configured")
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: text}},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("Cohere API error (status %d): %s", httpResp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("Cohere API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var b strings.Builder
	for _, c := range resp.Message.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: no text content (finish reason %q)", provider.ErrEmptyResponse, resp.FinishReason)
	}
	return out, nil
}
