package provider

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantVendor string
		wantModel  string
		wantErr    bool
	}{
		{name: "bare model defaults to gemini", id: "gemini-1.5-pro-latest", wantVendor: "gemini", wantModel: "gemini-1.5-pro-latest"},
		{name: "explicit vendor", id: "openai:gpt-4o-mini", wantVendor: "openai", wantModel: "gpt-4o-mini"},
		{name: "vendor is lowercased and trimmed", id: " Claude : claude-3-5-haiku-latest ", wantVendor: "claude", wantModel: "claude-3-5-haiku-latest"},
		{name: "empty", id: "  ", wantErr: true},
		{name: "missing model", id: "openai:", wantErr: true},
		{name: "missing vendor", id: ":gpt-4o", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendor, model, err := ParseID(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("expected ErrInvalidID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if vendor != tt.wantVendor || model != tt.wantModel {
				t.Errorf("ParseID(%q) = %q, %q; want %q, %q", tt.id, vendor, model, tt.wantVendor, tt.wantModel)
			}
		})
	}
}

func TestRegistryBuildPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	stub := func(vendor string) Factory {
		return func(model string) (Provider, error) {
			return Func{ID: vendor + ":" + model}, nil
		}
	}
	if err := reg.Register("gemini", stub("gemini")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("OpenAI", stub("openai")); err != nil {
		t.Fatalf("register: %v", err)
	}

	candidates, err := reg.Build([]string{"gemini-1.5-pro-latest", "openai:gpt-4o-mini", "gemini:gemini-1.5-flash-002"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	got := make([]string, len(candidates))
	for i, c := range candidates {
		got[i] = c.ID
		if c.Provider.Name() != c.ID {
			t.Errorf("provider name %q does not match candidate id %q", c.Provider.Name(), c.ID)
		}
	}
	want := []string{"gemini:gemini-1.5-pro-latest", "openai:gpt-4o-mini", "gemini:gemini-1.5-flash-002"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(reg.Vendors(), []string{"gemini", "openai"}) {
		t.Errorf("unexpected vendors %v", reg.Vendors())
	}
}

func TestRegistryBuildErrors(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("gemini", func(model string) (Provider, error) {
		return nil, errors.New("no key")
	})

	if _, err := reg.Build([]string{"cohere:command"}); !errors.Is(err, ErrUnknownVendor) {
		t.Fatalf("expected ErrUnknownVendor, got %v", err)
	}
	if _, err := reg.Build([]string{"gemini-pro"}); err == nil {
		t.Fatalf("expected factory error")
	}
	if err := reg.Register("", nil); err == nil {
		t.Fatalf("expected error for empty vendor")
	}
}

func TestFuncWithoutFunctionIsEmpty(t *testing.T) {
	_, err := Func{ID: "x"}.Generate(context.Background(), "hi")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestCanonicalID(t *testing.T) {
	id, err := CanonicalID("gemini-1.5-flash-latest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "gemini:gemini-1.5-flash-latest" {
		t.Errorf("got %q", id)
	}
}
