package provider

import (
	"context"
	"fmt"
	"strings"

	"alcyxob/runplan/internal/config"
)

// Provider types accepted in generation.providers[].type.
const (
	TypeVertexREST = "vertex_rest"
	TypeGenAI      = "genai_sdk"
	TypeOpenAIChat = "openai_chat"
	TypeMock       = "mock"
)

// New builds one provider from its configuration.
func New(ctx context.Context, cfg config.ProviderConfig) (Provider, error) {
	cfg = cfg.WithDefaults()
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeVertexREST, "vertex":
		return NewVertexREST(ctx, cfg)
	case TypeGenAI, "genai":
		return NewGenAI(ctx, cfg)
	case TypeOpenAIChat, "openai":
		return NewOpenAIChat(cfg)
	case TypeMock:
		return NewMock(cfg.Name, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q for %q", cfg.Type, cfg.Name)
	}
}

// BuildChain builds the providers in configured order. Names must be unique.
func BuildChain(ctx context.Context, cfgs []config.ProviderConfig) ([]Provider, error) {
	if len(cfgs) == 0 {
		return nil, ErrNoProviders
	}
	seen := make(map[string]struct{}, len(cfgs))
	chain := make([]Provider, 0, len(cfgs))
	for _, c := range cfgs {
		c = c.WithDefaults()
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("provider name required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("duplicate provider name: %s", name)
		}
		seen[name] = struct{}{}

		p, err := New(ctx, c)
		if err != nil {
			return nil, err
		}
		chain = append(chain, Throttle(p, c.RateLimit, c.RateBurst))
	}
	return chain, nil
}
