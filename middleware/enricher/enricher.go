package enricher

import (
	"github.com/google/uuid"

	"github.com/sweetpotato0/keyara/middleware"
	"github.com/sweetpotato0/keyara/preprocess"
)

// EnricherFunc enriches the context
type EnricherFunc func(*middleware.Context) error

// ContextEnricher adds additional data to the middleware context
type ContextEnricher struct {
	name     string
	enricher EnricherFunc
}

// NewContextEnricher creates a context enriching middleware reported as name.
func NewContextEnricher(name string, enricher EnricherFunc) *ContextEnricher {
	if name == "" {
		name = "ContextEnricher"
	}
	return &ContextEnricher{name: name, enricher: enricher}
}

// Name returns the middleware name
func (m *ContextEnricher) Name() string {
	return m.name
}

// Execute enriches the context
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.enricher != nil {
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}

// RequestID assigns a UUID request id unless one is already present.
func RequestID() *ContextEnricher {
	return NewContextEnricher("RequestID", func(ctx *middleware.Context) error {
		if ctx.RequestID() == "" {
			ctx.Set(middleware.MetadataRequestID, uuid.NewString())
		}
		return nil
	})
}

// CleanInput drops control characters from the prompt and keeps the
// untouched text under MetadataRawInput. Markup and spacing reach the model
// as sent.
func CleanInput() *ContextEnricher {
	return NewContextEnricher("CleanInput", func(ctx *middleware.Context) error {
		ctx.Set(middleware.MetadataRawInput, ctx.Input)
		ctx.Input = preprocess.StripControl(ctx.Input)
		return nil
	})
}

// NormalizeInput rewrites the prompt with preprocess.Clean: HTML becomes
// text and whitespace runs collapse. Enabled by prompt.normalize.
func NormalizeInput() *ContextEnricher {
	return NewContextEnricher("NormalizeInput", func(ctx *middleware.Context) error {
		if _, ok := ctx.Metadata[middleware.MetadataRawInput]; !ok {
			ctx.Set(middleware.MetadataRawInput, ctx.Input)
		}
		ctx.Input = preprocess.Clean(ctx.Input)
		return nil
	})
}
