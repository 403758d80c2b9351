// Package provider defines the text-generation capability that the response
// generator falls back across, plus the registry that turns candidate
// identifiers such as "gemini:gemini-1.5-flash-latest" into providers.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultVendor is used for identifiers without a "vendor:" prefix.
const DefaultVendor = "gemini"

var (
	// ErrEmptyResponse is returned by adapters when the vendor answered without usable text.
	ErrEmptyResponse = errors.New("provider returned an empty response")

	// ErrUnknownVendor indicates a candidate identifier names an unregistered vendor.
	ErrUnknownVendor = errors.New("unknown provider vendor")

	// ErrInvalidID indicates a malformed candidate identifier.
	ErrInvalidID = errors.New("invalid candidate identifier")
)

// Provider accepts one text blob and returns a completion or an error.
type Provider interface {
	// Name identifies the provider in logs, e.g. "gemini:gemini-1.5-pro-latest".
	Name() string

	// Generate performs a single synchronous call. Any timeout is the
	// caller's business, carried by ctx.
	Generate(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function into a Provider.
type Func struct {
	ID string
	Fn func(ctx context.Context, text string) (string, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Generate(ctx context.Context, text string) (string, error) {
	if f.Fn == nil {
		return "", ErrEmptyResponse
	}
	return f.Fn(ctx, text)
}

// Ptr returns a pointer to v. Adapter configs use pointers for optional
// sampling settings so that zero can be sent explicitly.
func Ptr[T any](v T) *T {
	return &v
}

// Candidate is one entry of the ordered fallback list.
type Candidate struct {
	ID       string
	Provider Provider
}

// ParseID splits "vendor:model" into its parts. A bare model name belongs to
// DefaultVendor.
func ParseID(id string) (vendor, model string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	vendor, model, found := strings.Cut(id, ":")
	if !found {
		return DefaultVendor, id, nil
	}
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	model = strings.TrimSpace(model)
	if vendor == "" || model == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return vendor, model, nil
}

// CanonicalID returns the "vendor:model" form of id.
func CanonicalID(id string) (string, error) {
	vendor, model, err := ParseID(id)
	if err != nil {
		return "", err
	}
	return vendor + ":" + model, nil
}

// Factory builds a provider for a model of one vendor.
type Factory func(model string) (Provider, error)

// Registry maps vendor names to factories.
// All operations are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for vendor.
func (r *Registry) Register(vendor string, factory Factory) error {
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	if vendor == "" {
		return fmt.Errorf("vendor name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for %s cannot be nil", vendor)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[vendor] = factory
	return nil
}

// Vendors returns the registered vendor names in sorted order.
func (r *Registry) Vendors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves identifiers into candidates, preserving order.
func (r *Registry) Build(ids []string) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		vendor, model, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		r.mu.RLock()
		factory, ok := r.factories[vendor]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVendor, vendor)
		}
		p, err := factory(model)
		if err != nil {
			return nil, fmt.Errorf("build candidate %s:%s: %w", vendor, model, err)
		}
		candidates = append(candidates, Candidate{ID: vendor + ":" + model, Provider: p})
	}
	return candidates, nil
}
