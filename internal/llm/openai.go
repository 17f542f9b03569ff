package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAI talks to the chat completions API (or any compatible gateway when
// a base URL is given).
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, model string, httpClient *http.Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	// temperature is omitempty in the SDK; a literal 0 would be dropped and
	// the API default of 1 used instead.
	temp := req.Temperature
	if temp == 0 {
		temp = math.SmallestNonzeroFloat32
	}

	creq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := o.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
