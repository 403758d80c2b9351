package config

import (
	"strings"
	"testing"
)

func TestValidatorRules(t *testing.T) {
	tests := []struct {
		name      string
		apply     func(v *Validator)
		wantError bool
	}{
		{"non-empty ok", func(v *Validator) { v.RequireNonEmpty("f", "x") }, false},
		{"non-empty fails", func(v *Validator) { v.RequireNonEmpty("f", "") }, true},
		{"positive ok", func(v *Validator) { v.RequirePositive("f", 10) }, false},
		{"positive zero", func(v *Validator) { v.RequirePositive("f", 0) }, true},
		{"positive negative", func(v *Validator) { v.RequirePositive("f", -5) }, true},
		{"non-negative zero", func(v *Validator) { v.RequireNonNegative("f", 0) }, false},
		{"non-negative fails", func(v *Validator) { v.RequireNonNegative("f", -1) }, true},
		{"range inside", func(v *Validator) { v.ValidateRange("f", 5, 1, 10) }, false},
		{"range at bounds", func(v *Validator) { v.ValidateRange("f", 10, 1, 10) }, false},
		{"range outside", func(v *Validator) { v.ValidateRange("f", 11, 1, 10) }, true},
		{"float range ok", func(v *Validator) { v.ValidateFloatRange("f", 0.7, 0, 2) }, false},
		{"float range fails", func(v *Validator) { v.ValidateFloatRange("f", 2.5, 0, 2) }, true},
		{"port ok", func(v *Validator) { v.ValidatePort("f", 5000) }, false},
		{"port zero", func(v *Validator) { v.ValidatePort("f", 0) }, true},
		{"port too large", func(v *Validator) { v.ValidatePort("f", 70000) }, true},
		{"db ok", func(v *Validator) { v.ValidateDBNumber("f", 15) }, false},
		{"db fails", func(v *Validator) { v.ValidateDBNumber("f", 16) }, true},
		{"one of ok", func(v *Validator) { v.ValidateOneOf("f", "json", "json", "text") }, false},
		{"one of fails", func(v *Validator) { v.ValidateOneOf("f", "xml", "json", "text") }, true},
		{"origins wildcard", func(v *Validator) { v.ValidateOrigins("f", []string{"*"}) }, false},
		{"origins ok", func(v *Validator) {
			v.ValidateOrigins("f", []string{"https://rentease.in", "http://localhost:5173"})
		}, false},
		{"origin with path", func(v *Validator) { v.ValidateOrigins("f", []string{"https://rentease.in/app"}) }, true},
		{"origin without scheme", func(v *Validator) { v.ValidateOrigins("f", []string{"rentease.in"}) }, true},
		{"list ok", func(v *Validator) { v.RequireNonEmptyList("f", []string{"a"}) }, false},
		{"list empty", func(v *Validator) { v.RequireNonEmptyList("f", nil) }, true},
		{"candidate ids ok", func(v *Validator) {
			v.ValidateCandidateIDs("f", []string{"gemini-1.5-pro-latest", "openai:gpt-4o-mini"})
		}, false},
		{"candidate id missing model", func(v *Validator) { v.ValidateCandidateIDs("f", []string{"openai:"}) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			tt.apply(v)
			if v.HasErrors() != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v (%v)", v.HasErrors(), tt.wantError, v.Errors())
			}
		})
	}
}

func TestValidatorMultipleErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("field1", "").
		RequirePositive("field2", 0).
		ValidatePort("field3", 99999)

	if len(v.Errors()) != 3 {
		t.Errorf("Errors() count = %d, want 3", len(v.Errors()))
	}

	err := v.Error()
	if err == nil {
		t.Fatal("Error() = nil, want non-nil error")
	}
	for _, field := range []string{"field1", "field2", "field3"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error message missing %s: %v", field, err)
		}
	}
}

func TestValidatorNoErrors(t *testing.T) {
	if err := NewValidator().RequireNonEmpty("f", "x").Error(); err != nil {
		t.Errorf("Error() = %v, want nil", err)
	}
}

func TestValidateRedisConfig(t *testing.T) {
	tests := []struct {
		name      string
		addr      string
		db        int
		prefix    string
		wantError bool
	}{
		{"valid config", "localhost:6379", 0, "keyara:ratelimit:", false},
		{"missing addr", "", 0, "keyara:ratelimit:", true},
		{"invalid db number", "localhost:6379", 16, "keyara:ratelimit:", true},
		{"missing prefix", "localhost:6379", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRedisConfig(tt.addr, tt.db, tt.prefix)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateRedisConfig() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
