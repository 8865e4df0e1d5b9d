package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"alcyxob/runplan/internal/config"
)

// contentGenerator is the slice of *genai.Models the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI calls Gemini through the Google Gen AI SDK, bound to a project/region on
// Vertex AI, or to the Gemini API when an API key is configured.
type GenAI struct {
	name   string
	model  string
	models contentGenerator
	config *genai.GenerateContentConfig
}

// NewGenAI constructs the SDK client once. The client is stateless and needs no teardown.
func NewGenAI(ctx context.Context, cfg config.ProviderConfig) (*GenAI, error) {
	cfg = cfg.WithDefaults()

	cc := &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Region,
		Backend:  genai.BackendVertexAI,
	}
	if strings.TrimSpace(cfg.APIKey) != "" {
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	} else if strings.TrimSpace(cfg.Project) == "" {
		return nil, errors.New("genai_sdk: project or api_key required")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai_sdk %s: create client: %w", cfg.Name, err)
	}
	return newGenAI(cfg, client.Models)
}

func newGenAI(cfg config.ProviderConfig, models contentGenerator) (*GenAI, error) {
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("genai_sdk: model required")
	}

	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
		Temperature:     genai.Ptr(float32(cfg.Temperature)),
		TopP:            genai.Ptr(float32(cfg.TopP)),
		TopK:            genai.Ptr(float32(cfg.TopK)),
	}
	for _, c := range safetyCategories {
		gc.SafetySettings = append(gc.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(c),
			Threshold: genai.HarmBlockThreshold(safetyThreshold),
		})
	}

	return &GenAI{name: cfg.Name, model: cfg.Model, models: models, config: gc}, nil
}

func (g *GenAI) Name() string  { return g.name }
func (g *GenAI) Model() string { return g.model }

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", g.wrapError(err)
	}

	// No candidate (e.g. blocked by safety filters) is an empty reply, not a crash.
	if resp == nil || len(resp.Candidates) == 0 {
		return "", emptyResponse(g)
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return "", emptyResponse(g)
	}
	text := candidate.Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", emptyResponse(g)
	}
	return text, nil
}

func (g *GenAI) wrapError(err error) error {
	pe := &ProviderError{Provider: g.name, Model: g.model, Err: err}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		pe.Status, pe.Code, pe.Message = apiErr.Code, apiErr.Status, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		pe.Status, pe.Code, pe.Message = apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	}
	return pe
}
