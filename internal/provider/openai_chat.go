package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"alcyxob/runplan/internal/config"
)

const defaultLanguage = "English"

// OpenAIChat calls an OpenAI-compatible chat-completion endpoint in JSON mode.
type OpenAIChat struct {
	name     string
	model    string
	language string

	maxTokens   int
	temperature float32
	topP        float32

	client *openai.Client
}

// NewOpenAIChat builds a chat-completion provider. A non-empty BaseURL points the
// client at a compatible gateway instead of api.openai.com.
func NewOpenAIChat(cfg config.ProviderConfig) (*OpenAIChat, error) {
	return NewOpenAIChatWithClient(cfg, nil)
}

// NewOpenAIChatWithClient lets tests supply the HTTP doer.
func NewOpenAIChatWithClient(cfg config.ProviderConfig, doer openai.HTTPDoer) (*OpenAIChat, error) {
	cfg = cfg.WithDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai_chat: api_key required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai_chat: model required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	if doer != nil {
		oc.HTTPClient = doer
	}

	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}

	return &OpenAIChat{
		name:        cfg.Name,
		model:       cfg.Model,
		language:    language,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: float32(cfg.Temperature),
		topP:        float32(cfg.TopP),
		client:      openai.NewClientWithConfig(oc),
	}, nil
}

func (o *OpenAIChat) Name() string  { return o.name }
func (o *OpenAIChat) Model() string { return o.model }

// systemInstruction fixes the reply language and format. JSON mode requires the
// word "JSON" to appear in the conversation.
func (o *OpenAIChat) systemInstruction() string {
	return fmt.Sprintf("You are an experienced running coach. Write every text field in %s. "+
		"Reply with a single JSON object and nothing else.", o.language)
}

func (o *OpenAIChat) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.systemInstruction()},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		TopP:        o.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", o.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", emptyResponse(o)
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", emptyResponse(o)
	}
	return text, nil
}

func (o *OpenAIChat) wrapError(err error) error {
	pe := &ProviderError{Provider: o.name, Model: o.model, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.Status = apiErr.HTTPStatusCode
		pe.Message = apiErr.Message
		if code, ok := apiErr.Code.(string); ok {
			pe.Code = code
		}
	case errors.As(err, &reqErr):
		pe.Status = reqErr.HTTPStatusCode
		if len(reqErr.Body) > 0 {
			pe.Message = string(reqErr.Body)
		}
	}
	return pe
}
