// Package provider wraps the text-generation backends behind one contract and
// routes a prompt through an ordered fallback chain of them.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Provider sends a prompt to one backend/model and returns the raw reply text.
type Provider interface {
	// Name identifies the configured candidate, e.g. "vertex-flash".
	Name() string
	// Model is the backend model the candidate calls.
	Model() string
	// Generate fails with *ProviderError on transport/auth/quota failures and with
	// ErrEmptyResponse when the backend answered without usable text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse means the backend call succeeded but carried no text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// ProviderError is a failed backend call. Status is the HTTP status when one is known.
type ProviderError struct {
	Provider string
	Model    string
	Status   int
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "provider %s (model %s) failed", e.Provider, e.Model)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(truncate(e.Message, 500))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// emptyResponse tags ErrEmptyResponse with the candidate that produced it.
func emptyResponse(p Provider) error {
	return fmt.Errorf("%s (model %s): %w", p.Name(), p.Model(), ErrEmptyResponse)
}

var modelUnavailableHints = []string{
	"not found",
	"not supported",
	"does not exist",
	"unsupported",
}

// IsModelUnavailable reports whether err says the requested model is missing or not
// supported by the backend, as opposed to quota, auth or request failures. A bare 404
// is not enough: a missing project or a wrong endpoint also answers 404, so the message
// has to be about the model.
func IsModelUnavailable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	if pe.Code == "model_not_found" {
		return true
	}
	msg := strings.ToLower(pe.Message)
	if !strings.Contains(msg, "model") {
		return false
	}
	for _, hint := range modelUnavailableHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
