// Package generator implements the Keyara response generator: it prepends the
// system prompt to a user prompt and walks an ordered list of candidates,
// returning the first non-empty completion.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/keyara/errors"
	"github.com/sweetpotato0/keyara/pkg/logging"
	"github.com/sweetpotato0/keyara/pkg/metrics"
	"github.com/sweetpotato0/keyara/pkg/telemetry"
	"github.com/sweetpotato0/keyara/prompt"
	"github.com/sweetpotato0/keyara/provider"
)

// Generator tries candidates in order. It is immutable after New and safe
// for concurrent use.
type Generator struct {
	systemPrompt string
	candidates   []provider.Candidate
	logger       *slog.Logger
	metrics      metrics.Recorder
	tracer       trace.Tracer
}

// Option is a function that configures a Generator
type Option func(*Generator)

// WithSystemPrompt sets the text prepended to every user prompt.
func WithSystemPrompt(text string) Option {
	return func(g *Generator) {
		g.systemPrompt = text
	}
}

// WithLogger sets the attempt logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(g *Generator) {
		if rec != nil {
			g.metrics = rec
		}
	}
}

// WithTracer sets the tracer used for generate and attempt spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Generator) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// New builds a Generator over candidates, which are copied.
func New(candidates []provider.Candidate, opts ...Option) *Generator {
	g := &Generator{
		candidates: append([]provider.Candidate(nil), candidates...),
		logger:     logging.WithComponent("generator"),
		metrics:    metrics.Noop{},
		tracer:     telemetry.Tracer(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Candidates returns a copy of the candidate list.
func (g *Generator) Candidates() []provider.Candidate {
	return append([]provider.Candidate(nil), g.candidates...)
}

// CandidateIDs returns the candidate identifiers in priority order.
func (g *Generator) CandidateIDs() []string {
	ids := make([]string, len(g.candidates))
	for i, c := range g.candidates {
		ids[i] = c.ID
	}
	return ids
}

// SystemPrompt returns the configured system prompt.
func (g *Generator) SystemPrompt() string {
	return g.systemPrompt
}

// Generate returns the first non-empty completion for userPrompt.
//
// An empty or all-whitespace prompt fails with errors.ErrInvalidInput before
// any candidate runs. Each candidate is tried once; an error or blank reply
// moves on to the next one. When none succeeds the result is an
// *errors.ExhaustedError carrying every attempt.
func (g *Generator) Generate(ctx context.Context, userPrompt string) (text string, err error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		g.metrics.IncRejected("invalid_input")
		return "", fmt.Errorf("%w: prompt is required", errors.ErrInvalidInput)
	}

	ctx, span := g.tracer.Start(ctx, "generator.generate",
		trace.WithAttributes(attribute.Int("keyara.candidates", len(g.candidates))))
	defer func() { telemetry.End(span, err) }()

	g.logger.InfoContext(ctx, "prompt received", "prompt_chars", len(userPrompt))

	composed := prompt.Compose(g.systemPrompt, userPrompt)
	attempts := make([]errors.Attempt, 0, len(g.candidates))
	var last error

	for _, c := range g.candidates {
		out, elapsed, attemptErr := g.attempt(ctx, c, composed)
		if attemptErr == nil {
			span.SetAttributes(attribute.String("keyara.candidate", c.ID))
			return out, nil
		}
		attempts = append(attempts, errors.Attempt{Candidate: c.ID, Err: attemptErr, Duration: elapsed})
		last = attemptErr
	}

	g.metrics.IncExhausted()
	g.logger.ErrorContext(ctx, "all candidates failed", "attempts", len(attempts), "error", last)
	return "", &errors.ExhaustedError{Attempts: attempts, Last: last}
}

func (g *Generator) attempt(ctx context.Context, c provider.Candidate, composed string) (string, time.Duration, error) {
	ctx, span := g.tracer.Start(ctx, "generator.attempt",
		trace.WithAttributes(attribute.String("keyara.candidate", c.ID)))

	g.logger.DebugContext(ctx, "attempting candidate", "candidate", c.ID)
	start := time.Now()
	out, err := g.call(ctx, c, composed)
	elapsed := time.Since(start)

	outcome := metrics.OutcomeSuccess
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		g.logger.WarnContext(ctx, "candidate failed", "candidate", c.ID, "duration", elapsed, "error", err)
	case out == "":
		outcome = metrics.OutcomeEmpty
		err = provider.ErrEmptyResponse
		g.logger.WarnContext(ctx, "candidate returned empty response", "candidate", c.ID, "duration", elapsed)
	default:
		g.logger.InfoContext(ctx, "candidate succeeded", "candidate", c.ID, "duration", elapsed, "response_chars", len(out))
	}
	g.metrics.ObserveAttempt(c.ID, outcome, elapsed.Seconds())
	telemetry.End(span, err)
	return out, elapsed, err
}

// call invokes the provider. A panicking adapter counts as a failed attempt.
func (g *Generator) call(ctx context.Context, c provider.Candidate, composed string) (out string, err error) {
	if c.Provider == nil {
		return "", fmt.Errorf("candidate %s has no provider", c.ID)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("candidate %s panicked: %v", c.ID, r)
		}
	}()
	out, err = c.Provider.Generate(ctx, composed)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
