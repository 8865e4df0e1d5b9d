package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"alcyxob/runplan/internal/config"
)

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("metadata server unreachable")
}

func vertexConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Name:    "vertex",
		Type:    TypeVertexREST,
		Model:   "gemini-1.5-flash",
		Project: "demo-project",
		Region:  "europe-west1",
		BaseURL: "http://vertex.test",
	}
}

func TestVertexREST_Generate(t *testing.T) {
	var got vertexRequest
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/v1/projects/demo-project/locations/europe-west1/publishers/google/models/gemini-1.5-flash:generateContent", req.URL.Path)
		assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"week1\":[]}"}]}}]}`), nil
	})}

	v, err := NewVertexRESTWithClient(vertexConfig(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-123"}), client)
	require.NoError(t, err)

	text, err := v.Generate(context.Background(), "plan please")
	require.NoError(t, err)
	assert.Equal(t, `{"week1":[]}`, text)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "plan please", got.Contents[0].Parts[0].Text)
	assert.Equal(t, config.DefaultMaxOutputTokens, got.GenerationConfig.MaxOutputTokens)
	require.Len(t, got.SafetySettings, 4)
	for _, s := range got.SafetySettings {
		assert.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", s.Threshold)
	}
}

func TestVertexREST_Errors(t *testing.T) {
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})

	t.Run("non-2xx carries the body", func(t *testing.T) {
		client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusNotFound, `{"error":{"message":"Publisher Model was not found"}}`), nil
		})}
		v, err := NewVertexRESTWithClient(vertexConfig(), tokens, client)
		require.NoError(t, err)

		_, err = v.Generate(context.Background(), "p")
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, http.StatusNotFound, pe.Status)
		assert.Contains(t, pe.Message, "Publisher Model was not found")
		assert.True(t, IsModelUnavailable(err))
	})

	t.Run("no candidates is an empty response", func(t *testing.T) {
		client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
		})}
		v, err := NewVertexRESTWithClient(vertexConfig(), tokens, client)
		require.NoError(t, err)

		_, err = v.Generate(context.Background(), "p")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("token failure", func(t *testing.T) {
		v, err := NewVertexRESTWithClient(vertexConfig(), failingTokenSource{}, &http.Client{})
		require.NoError(t, err)

		_, err = v.Generate(context.Background(), "p")
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.False(t, IsModelUnavailable(err))
	})
}

func TestNewVertexRESTWithClient_Validation(t *testing.T) {
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})

	cfg := vertexConfig()
	cfg.Project = ""
	_, err := NewVertexRESTWithClient(cfg, tokens, nil)
	assert.Error(t, err)

	_, err = NewVertexRESTWithClient(vertexConfig(), nil, nil)
	assert.Error(t, err)

	cfg = vertexConfig()
	cfg.BaseURL = ""
	v, err := NewVertexRESTWithClient(cfg, tokens, nil)
	require.NoError(t, err)
	assert.Contains(t, v.endpoint(), "https://europe-west1-aiplatform.googleapis.com/")
}
