package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/runplan/internal/config"
)

func openaiConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Name:     "openai",
		Type:     TypeOpenAIChat,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  "http://openai.test/v1",
		Language: "Portuguese",
	}
}

func TestOpenAIChat_Generate(t *testing.T) {
	var got openai.ChatCompletionRequest
	client := &http.Client{Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		return jsonResponse(http.StatusOK, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"week1\":[]}"}}]
		}`), nil
	})}

	o, err := NewOpenAIChatWithClient(openaiConfig(), client)
	require.NoError(t, err)

	text, err := o.Generate(context.Background(), "plan please")
	require.NoError(t, err)
	assert.Equal(t, `{"week1":[]}`, text)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Portuguese")
	assert.Contains(t, got.Messages[0].Content, "JSON")
	assert.Equal(t, "plan please", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, got.ResponseFormat.Type)
}

func TestOpenAIChat_ModelNotFound(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"error":{"message":"The model gpt-x does not exist","type":"invalid_request_error","code":"model_not_found"}}`), nil
	})}
	o, err := NewOpenAIChatWithClient(openaiConfig(), client)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), "p")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusNotFound, pe.Status)
	assert.Equal(t, "model_not_found", pe.Code)
	assert.True(t, IsModelUnavailable(err))
}

func TestOpenAIChat_RateLimited(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`), nil
	})}
	o, err := NewOpenAIChatWithClient(openaiConfig(), client)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), "p")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
	assert.False(t, IsModelUnavailable(err))
}

func TestOpenAIChat_NoChoices(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"id":"x","choices":[]}`), nil
	})}
	o, err := NewOpenAIChatWithClient(openaiConfig(), client)
	require.NoError(t, err)

	_, err = o.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewOpenAIChat_RequiresKey(t *testing.T) {
	cfg := openaiConfig()
	cfg.APIKey = ""
	_, err := NewOpenAIChat(cfg)
	assert.Error(t, err)
}
