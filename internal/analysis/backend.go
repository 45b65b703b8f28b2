package analysis

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider indicates an unrecognized analysis provider name
	ErrUnknownProvider = errors.New("unknown analysis provider")
	// ErrBackendCallFailed indicates the analysis backend call failed
	ErrBackendCallFailed = errors.New("analysis backend call failed")
	// ErrInvalidResponse indicates a malformed response envelope from the backend
	ErrInvalidResponse = errors.New("invalid analysis backend response")
)

// Provider identifies a text-analysis backend
type Provider string

const (
	// ProviderOpenAI represents the OpenAI chat completion API
	ProviderOpenAI Provider = "openai"
	// ProviderClaude represents the Anthropic Claude API
	ProviderClaude Provider = "claude"
	// ProviderDeepSeek represents the DeepSeek chat completion API
	ProviderDeepSeek Provider = "deepseek"
	// ProviderOllama represents a locally hosted Ollama model
	ProviderOllama Provider = "ollama"
)

// IsValid checks if the provider name is recognized
func (p Provider) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderClaude, ProviderDeepSeek, ProviderOllama:
		return true
	}
	return false
}

// Backend completes a prompt against one text-analysis service. Adding a
// backend means adding an implementation and a registry entry, not editing
// any dispatcher.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Credentials carries per-provider configuration for backend construction
type Credentials struct {
	OpenAIAPIKey   string
	ClaudeAPIKey   string
	DeepSeekAPIKey string
	OllamaBaseURL  string
	OllamaModel    string
}

type backendFactory func(Credentials) Backend

var backendRegistry = map[Provider]backendFactory{
	ProviderOpenAI:   func(c Credentials) Backend { return newOpenAIBackend(c.OpenAIAPIKey) },
	ProviderClaude:   func(c Credentials) Backend { return newClaudeBackend(c.ClaudeAPIKey) },
	ProviderDeepSeek: func(c Credentials) Backend { return newDeepSeekBackend(c.DeepSeekAPIKey) },
	ProviderOllama:   func(c Credentials) Backend { return newOllamaBackend(c.OllamaBaseURL, c.OllamaModel) },
}

// SelectBackend constructs the backend for the named provider. Unknown
// provider names are a construction-time error.
func SelectBackend(provider Provider, creds Credentials) (Backend, error) {
	factory, ok := backendRegistry[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return factory(creds), nil
}
