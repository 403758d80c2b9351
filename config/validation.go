package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/sweetpotato0/keyara/provider"
)

// ValidationError is one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// Validator collects field errors. Every rule returns the receiver so rules
// chain; Error reports all failures at once.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) fail(field, format string, args ...any) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

// RequireNonEmpty rejects a blank string.
func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.fail(field, "must be set")
	}
	return v
}

// RequirePositive rejects values below 1.
func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value <= 0 {
		return v.fail(field, "must be positive, got %d", value)
	}
	return v
}

// RequireNonNegative rejects negative values. Zero usually means "disabled".
func (v *Validator) RequireNonNegative(field string, value int) *Validator {
	if value < 0 {
		return v.fail(field, "must not be negative, got %d", value)
	}
	return v
}

// RequireNonEmptyList rejects an empty list.
func (v *Validator) RequireNonEmptyList(field string, values []string) *Validator {
	if len(values) == 0 {
		return v.fail(field, "needs at least one entry")
	}
	return v
}

// ValidateCandidateIDs checks that every model identifier parses.
func (v *Validator) ValidateCandidateIDs(field string, ids []string) *Validator {
	for i, id := range ids {
		if _, _, err := provider.ParseID(id); err != nil {
			v.fail(fmt.Sprintf("%s[%d]", field, i), "%v", err)
		}
	}
	return v
}

// ValidateOrigins accepts "*" or absolute http(s) origins without a path.
func (v *Validator) ValidateOrigins(field string, origins []string) *Validator {
	for i, o := range origins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.Trim(u.Path, "/") != "" {
			v.fail(fmt.Sprintf("%s[%d]", field, i), "%q is not an origin like https://rentease.in", o)
		}
	}
	return v
}

// ValidateRange checks min <= value <= max.
func (v *Validator) ValidateRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.fail(field, "must be between %d and %d, got %d", min, max, value)
	}
	return v
}

// ValidateFloatRange checks min <= value <= max.
func (v *Validator) ValidateFloatRange(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		return v.fail(field, "must be between %.2f and %.2f, got %.2f", min, max, value)
	}
	return v
}

// ValidatePort checks a TCP port.
func (v *Validator) ValidatePort(field string, port int) *Validator {
	return v.ValidateRange(field, port, 1, 65535)
}

// ValidateDBNumber checks a Redis logical database index.
func (v *Validator) ValidateDBNumber(field string, db int) *Validator {
	return v.ValidateRange(field, db, 0, 15)
}

// ValidateOneOf checks value against a closed set.
func (v *Validator) ValidateOneOf(field string, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		return v.fail(field, "must be one of %v, got %q", allowed, value)
	}
	return v
}

// HasErrors reports whether any rule failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Error joins every failure into one error, or returns nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	var b strings.Builder
	b.WriteString("invalid keyara configuration:")
	for _, e := range v.errors {
		fmt.Fprintf(&b, "\n  - %s: %s", e.Field, e.Message)
	}
	return errors.New(b.String())
}

// Errors returns the collected failures.
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ValidateRedisConfig checks the settings of the shared rate limiter store.
func ValidateRedisConfig(addr string, db int, prefix string) error {
	return NewValidator().
		RequireNonEmpty("rate_limit.redis_addr", addr).
		ValidateDBNumber("rate_limit.redis_db", db).
		RequireNonEmpty("rate_limit.redis_prefix", prefix).
		Error()
}
