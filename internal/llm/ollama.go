package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama calls a local Ollama server's /api/chat endpoint.
type Ollama struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewOllama(baseURL, model string, httpClient *http.Client) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{BaseURL: strings.TrimRight(baseURL, "/"), Model: model, HTTPClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
}

func (o *Ollama) Name() string { return ProviderOllama }

func (o *Ollama) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body := ollamaChatRequest{
		Model:    o.Model,
		Messages: msgs,
		Stream:   false,
		Options:  ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	if req.JSON {
		body.Format = "json"
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, string(b))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return strings.TrimSpace(out.Message.Content), nil
}
