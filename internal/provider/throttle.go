package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// throttled limits how often the wrapped provider is called. Waiting for a slot
// counts against the attempt's deadline.
type throttled struct {
	Provider
	limiter *rate.Limiter
}

// Throttle wraps p so calls are admitted at most perSecond times a second with the given burst.
func Throttle(p Provider, perSecond float64, burst int) Provider {
	if perSecond <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &throttled{Provider: p, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *throttled) Generate(ctx context.Context, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: t.Name(), Model: t.Model(), Code: "rate_limited", Message: "local rate limit", Err: err}
	}
	return t.Provider.Generate(ctx, prompt)
}
