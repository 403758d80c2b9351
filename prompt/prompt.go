package prompt

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Separator sits between the system prompt and the user prompt.
const Separator = "\n\n"

// Template represents a prompt template with variables
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

var funcs = template.FuncMap{
	"cities": joinCities,
	"join":   strings.Join,
}

// NewTemplate parses content. Missing keys are an error at render time.
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// LoadTemplate reads and parses a template file.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return NewTemplate(path, string(raw))
}

// Render renders the template with the given data
func (t *Template) Render(data any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Compose joins the system prompt and the user prompt with a blank line.
func Compose(system, user string) string {
	return system + Separator + user
}

// joinCities renders "A, B, and C" the way the example answers read.
func joinCities(cities []string) string {
	switch len(cities) {
	case 0:
		return ""
	case 1:
		return cities[0]
	case 2:
		return cities[0] + " and " + cities[1]
	}
	return strings.Join(cities[:len(cities)-1], ", ") + ", and " + cities[len(cities)-1]
}
