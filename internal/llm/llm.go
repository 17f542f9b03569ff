// Package llm wraps the external language model behind a single
// prompt-in, text-out call. The rest of the system treats the model as an
// opaque collaborator and never depends on a provider SDK directly.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoProvider is returned by the none provider on every call, so callers
// take their deterministic fallback path.
var ErrNoProvider = errors.New("llm: no provider configured")

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider for a JSON-only reply when it supports it.
	JSON bool
}

// Client is implemented by every provider.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// DefaultModel is the model used when Options.Model is empty.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOllama:
		return "llama3.2"
	default:
		return ""
	}
}

// New builds the client for opts.Provider.
func New(ctx context.Context, opts Options) (Client, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Provider)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: opts.Timeout}

	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("llm: %s provider requires an API key", ProviderOpenAI)
		}
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, httpClient), nil
	case ProviderGemini:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("llm: %s provider requires an API key", ProviderGemini)
		}
		return NewGemini(ctx, opts.APIKey, opts.BaseURL, opts.Model, httpClient)
	case ProviderOllama:
		return NewOllama(opts.BaseURL, opts.Model, httpClient), nil
	case ProviderNone, "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
}

// None is the provider used when no model is configured.
type None struct{}

func (None) Complete(context.Context, Request) (string, error) { return "", ErrNoProvider }
func (None) Name() string { return ProviderNone }
