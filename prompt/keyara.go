package prompt

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed keyara.tmpl
var keyaraTemplate string

// Persona fills the Keyara system prompt.
type Persona struct {
	Assistant string
	Platform  string
	Cities    []string
}

// DefaultCities are the cities with RentEase listings.
var DefaultCities = []string{"Mumbai", "Delhi", "Bangalore", "Chennai", "Hyderabad", "Kolkata"}

// DefaultPersona returns the Keyara assistant for RentEase.
func DefaultPersona() Persona {
	cities := make([]string, len(DefaultCities))
	copy(cities, DefaultCities)
	return Persona{
		Assistant: "Keyara",
		Platform:  "RentEase",
		Cities:    cities,
	}
}

// SystemPrompt renders the built-in system prompt for p. Empty fields fall
// back to DefaultPersona.
func SystemPrompt(p Persona) (string, error) {
	tmpl, err := NewTemplate("keyara", keyaraTemplate)
	if err != nil {
		return "", err
	}
	return renderPersona(tmpl, p)
}

// SystemPromptFromFile renders a custom template file with the same data as
// the built-in one.
func SystemPromptFromFile(path string, p Persona) (string, error) {
	tmpl, err := LoadTemplate(path)
	if err != nil {
		return "", err
	}
	return renderPersona(tmpl, p)
}

func renderPersona(tmpl *Template, p Persona) (string, error) {
	def := DefaultPersona()
	if strings.TrimSpace(p.Assistant) == "" {
		p.Assistant = def.Assistant
	}
	if strings.TrimSpace(p.Platform) == "" {
		p.Platform = def.Platform
	}
	if len(p.Cities) == 0 {
		p.Cities = def.Cities
	}
	text, err := tmpl.Render(p)
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(text), nil
}
