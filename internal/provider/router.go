package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/runplan/internal/config"
	"alcyxob/runplan/internal/logger"
)

// ErrNoProviders is returned by NewRouter for an empty chain.
var ErrNoProviders = errors.New("no generation providers configured")

// Attempt records one candidate call made by the router.
type Attempt struct {
	Provider string
	Model    string
	Err      error
	Duration time.Duration
}

// AllProvidersExhaustedError is returned when no candidate produced text. It unwraps
// to the last candidate's error.
type AllProvidersExhaustedError struct {
	Attempts []Attempt
}

func (e *AllProvidersExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all generation providers failed: no candidate was tried"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s/%s: %v", a.Provider, a.Model, a.Err))
	}
	return "all generation providers failed: " + strings.Join(parts, "; ")
}

func (e *AllProvidersExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Result is the winning reply plus the trail of candidates tried to get it.
type Result struct {
	Text     string
	Provider string
	Model    string
	Attempts []Attempt
}

// GeneratedBy names the winning candidate as "provider/model".
func (r *Result) GeneratedBy() string {
	return r.Provider + "/" + r.Model
}

// AttemptObserver receives one call per candidate attempt. outcome is "success",
// "model_unavailable", "empty_response" or "error".
type AttemptObserver interface {
	ObserveAttempt(provider, model, outcome string, d time.Duration)
}

// Router tries an ordered chain of providers, one call each, until one returns text.
type Router struct {
	providers []Provider
	policy    config.FallbackPolicy
	timeout   time.Duration
	log       *logger.Logger
	observer  AttemptObserver
}

type RouterOption func(*Router)

// WithPolicy selects which failures advance to the next candidate.
func WithPolicy(p config.FallbackPolicy) RouterOption {
	return func(r *Router) { r.policy = p }
}

// WithAttemptTimeout bounds each candidate call. Zero means no per-call bound.
func WithAttemptTimeout(d time.Duration) RouterOption {
	return func(r *Router) { r.timeout = d }
}

func WithLogger(l *logger.Logger) RouterOption {
	return func(r *Router) { r.log = l }
}

func WithObserver(o AttemptObserver) RouterOption {
	return func(r *Router) { r.observer = o }
}

func NewRouter(providers []Provider, opts ...RouterOption) (*Router, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	r := &Router{
		providers: append([]Provider(nil), providers...),
		policy:    config.FallbackContinue,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	return r, nil
}

// Candidates lists the chain as "provider/model" in try order.
func (r *Router) Candidates() []string {
	out := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Name()+"/"+p.Model())
	}
	return out
}

// Generate returns the first candidate reply with usable text.
//
// Under FallbackContinue every failure advances to the next candidate. Under
// FallbackFailFast only a missing or unsupported model advances; any other failure
// is returned straight away wrapped in AllProvidersExhaustedError. Cancellation of
// ctx stops the chain between candidates.
func (r *Router) Generate(ctx context.Context, prompt string) (*Result, error) {
	var attempts []Attempt

	for i, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation interrupted after %d attempt(s): %w", len(attempts), err)
		}

		start := time.Now()
		text, err := r.call(ctx, p, prompt)
		elapsed := time.Since(start)

		if err == nil {
			r.observe(p, "success", elapsed)
			if len(attempts) > 0 {
				r.log.Info("Generation succeeded on fallback candidate",
					"provider", p.Name(), "model", p.Model(), "fallbacks_used", len(attempts))
			}
			return &Result{Text: text, Provider: p.Name(), Model: p.Model(), Attempts: attempts}, nil
		}

		attempts = append(attempts, Attempt{Provider: p.Name(), Model: p.Model(), Err: err, Duration: elapsed})
		unavailable := IsModelUnavailable(err)
		r.observe(p, outcomeOf(err, unavailable), elapsed)

		if r.policy == config.FallbackFailFast && !unavailable {
			r.log.Warn("Provider failed, not trying fallbacks",
				"provider", p.Name(), "model", p.Model(), "error", err)
			return nil, &AllProvidersExhaustedError{Attempts: attempts}
		}
		if i < len(r.providers)-1 {
			r.log.Warn("Provider failed, trying fallback",
				"provider", p.Name(), "model", p.Model(), "error", err)
		}
	}

	r.log.Error("All generation providers failed", "attempts", len(attempts))
	return nil, &AllProvidersExhaustedError{Attempts: attempts}
}

func (r *Router) call(ctx context.Context, p Provider, prompt string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	text, err := p.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", emptyResponse(p)
	}
	return text, nil
}

func (r *Router) observe(p Provider, outcome string, d time.Duration) {
	if r.observer != nil {
		r.observer.ObserveAttempt(p.Name(), p.Model(), outcome, d)
	}
}

func outcomeOf(err error, unavailable bool) string {
	switch {
	case unavailable:
		return "model_unavailable"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	default:
		return "error"
	}
}
