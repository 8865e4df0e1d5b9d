package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"alcyxob/runplan/internal/config"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// maxResponseSize limits how much of a reply body is read.
const maxResponseSize = 10 << 20

// VertexREST calls the Vertex AI generateContent REST endpoint with a short-lived
// access token minted from the service credential.
type VertexREST struct {
	name    string
	model   string
	project string
	region  string
	baseURL string

	maxOutputTokens int
	temperature     float64
	topP            float64
	topK            float64

	tokens     oauth2.TokenSource
	httpClient *http.Client
}

// NewVertexREST resolves the service credential (inline JSON, file, or application
// default credentials) and returns a ready provider.
func NewVertexREST(ctx context.Context, cfg config.ProviderConfig) (*VertexREST, error) {
	ts, err := serviceTokenSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vertex_rest %s: %w", cfg.Name, err)
	}
	return NewVertexRESTWithClient(cfg, ts, nil)
}

// NewVertexRESTWithClient is intended for tests; it takes the token source and HTTP client directly.
func NewVertexRESTWithClient(cfg config.ProviderConfig, ts oauth2.TokenSource, httpClient *http.Client) (*VertexREST, error) {
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.Project) == "" {
		return nil, errors.New("vertex_rest: project required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("vertex_rest: model required")
	}
	if ts == nil {
		return nil, errors.New("vertex_rest: token source required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Region)
	}

	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}}
	}

	return &VertexREST{
		name:            cfg.Name,
		model:           cfg.Model,
		project:         cfg.Project,
		region:          cfg.Region,
		baseURL:         baseURL,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		topP:            cfg.TopP,
		topK:            cfg.TopK,
		tokens:          ts,
		httpClient:      httpClient,
	}, nil
}

func (v *VertexREST) Name() string  { return v.name }
func (v *VertexREST) Model() string { return v.model }

type vertexPart struct {
	Text string `json:"text"`
}

type vertexContent struct {
	Role  string       `json:"role"`
	Parts []vertexPart `json:"parts"`
}

type vertexGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            float64 `json:"topK"`
}

type vertexSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type vertexRequest struct {
	Contents         []vertexContent        `json:"contents"`
	GenerationConfig vertexGenerationConfig `json:"generationConfig"`
	SafetySettings   []vertexSafetySetting  `json:"safetySettings"`
}

type vertexResponse struct {
	Candidates []struct {
		Content struct {
			Parts []vertexPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (v *VertexREST) endpoint() string {
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		v.baseURL, v.project, v.region, v.model)
}

func (v *VertexREST) Generate(ctx context.Context, prompt string) (string, error) {
	token, err := v.tokens.Token()
	if err != nil {
		return "", &ProviderError{Provider: v.name, Model: v.model, Code: "token", Message: "acquire access token", Err: err}
	}

	body := vertexRequest{
		Contents: []vertexContent{{Role: "user", Parts: []vertexPart{{Text: prompt}}}},
		GenerationConfig: vertexGenerationConfig{
			MaxOutputTokens: v.maxOutputTokens,
			Temperature:     v.temperature,
			TopP:            v.topP,
			TopK:            v.topK,
		},
	}
	for _, c := range safetyCategories {
		body.SafetySettings = append(body.SafetySettings, vertexSafetySetting{Category: c, Threshold: safetyThreshold})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", &ProviderError{Provider: v.name, Model: v.model, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint(), &buf)
	if err != nil {
		return "", &ProviderError{Provider: v.name, Model: v.model, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: v.name, Model: v.model, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &ProviderError{Provider: v.name, Model: v.model, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{Provider: v.name, Model: v.model, Status: resp.StatusCode, Message: string(raw)}
	}

	var out vertexResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ProviderError{Provider: v.name, Model: v.model, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", emptyResponse(v)
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", emptyResponse(v)
	}
	return text, nil
}

func serviceTokenSource(ctx context.Context, cfg config.ProviderConfig) (oauth2.TokenSource, error) {
	credsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	if len(credsJSON) == 0 && strings.TrimSpace(cfg.CredentialsFile) != "" {
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, credsJSON, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("parse service credentials: %w", err)
		}
		return creds.TokenSource, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	return creds.TokenSource, nil
}
