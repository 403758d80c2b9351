package middleware

import (
	"context"
	"strings"
)

// Metadata keys shared between middlewares.
const (
	MetadataRequestID = "request_id"
	MetadataClientKey = "client_key"
	MetadataRawInput  = "raw_input"
)

// Context represents the middleware execution context for one generate request
type Context struct {
	// User prompt, possibly rewritten by earlier middlewares
	Input string

	// Generated reply
	Response string

	// Error from execution
	Error error

	// Metadata for passing data between middlewares
	Metadata map[string]any

	context context.Context
}

// NewContext creates a new middleware context
func NewContext(ctx context.Context, input string) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Input:    input,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// Set stores a metadata value.
func (c *Context) Set(key string, value any) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata[key] = value
}

// String returns the metadata value for key when it is a string.
func (c *Context) String(key string) string {
	v, _ := c.Metadata[key].(string)
	return v
}

// RequestID returns the id assigned by the enricher, if any.
func (c *Context) RequestID() string {
	return c.String(MetadataRequestID)
}

// Middleware intercepts a generate request before and after the model call
type Middleware interface {
	// Name returns the name of the middleware for logging and debugging
	Name() string

	// Execute runs the middleware logic.
	// Returning an error stops the chain.
	Execute(ctx *Context, next Handler) error
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// MiddlewareChain represents a sequence of middleware to be executed
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain. Nil entries are skipped.
func NewChain(middlewares ...Middleware) *MiddlewareChain {
	c := &MiddlewareChain{}
	for _, m := range middlewares {
		c.Add(m)
	}
	return c
}

// Add appends a middleware to the chain
func (c *MiddlewareChain) Add(m Middleware) *MiddlewareChain {
	if m != nil {
		c.middlewares = append(c.middlewares, m)
	}
	return c
}

// Names lists the middlewares in execution order.
func (c *MiddlewareChain) Names() []string {
	names := make([]string, len(c.middlewares))
	for i, m := range c.middlewares {
		names[i] = m.Name()
	}
	return names
}

// Execute runs all middlewares in the chain, then finalHandler
func (c *MiddlewareChain) Execute(ctx *Context, finalHandler Handler) error {
	if ctx == nil {
		return ErrInvalidContext
	}
	if ctx.Metadata == nil {
		ctx.Metadata = make(map[string]any)
	}
	err := c.executeMiddleware(ctx, 0, finalHandler)
	if err != nil {
		ctx.Error = err
	}
	return err
}

func (c *MiddlewareChain) executeMiddleware(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}

	next := func(ctx *Context) error {
		return c.executeMiddleware(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}

// Generator is the operation the chain wraps.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerateHandler returns a final handler that calls g with the current
// input and stores its reply in Response.
func GenerateHandler(g Generator) Handler {
	return func(ctx *Context) error {
		text, err := g.Generate(ctx.Context(), ctx.Input)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return ErrNoResponse
		}
		ctx.Response = text
		return nil
	}
}
