// Package groq provides Groq candidates through Groq's OpenAI-compatible
// chat completions endpoint.
package groq

import (
	"github.com/sweetpotato0/keyara/contrib/provider/openai"
	"github.com/sweetpotato0/keyara/provider"
)

const (
	// Vendor is the identifier prefix for Groq candidates.
	Vendor = "groq"

	baseURL = "https://api.groq.com/openai/v1"
)

// DefaultConfig returns an openai.Config pointed at Groq.
func DefaultConfig(apiKey string) *openai.Config {
	cfg := openai.DefaultConfig().WithAPIKey(apiKey).WithBaseURL(baseURL)
	cfg.Vendor = Vendor
	return cfg
}

// Factory returns a provider.Factory for Groq models. Candidates are always
// named under the groq vendor; an empty base URL points at Groq.
func Factory(config *openai.Config) provider.Factory {
	if config == nil {
		config = DefaultConfig("")
	}
	config.Vendor = Vendor
	if config.BaseURL == "" {
		config.BaseURL = baseURL
	}
	return openai.Factory(config)
}
