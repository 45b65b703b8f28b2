package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Shared chat-completion plumbing for the OpenAI-compatible backends
// (OpenAI, DeepSeek) and Claude, which differs only in auth headers.

const backendTimeout = 30 * time.Second

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatClient struct {
	baseURL    string
	model      string
	apiKey     string
	authHeader func(*http.Request, string)
	httpClient *http.Client
}

func newChatClient(baseURL, model, apiKey string, authHeader func(*http.Request, string)) *chatClient {
	return &chatClient{
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		authHeader: authHeader,
		httpClient: &http.Client{Timeout: backendTimeout},
	}
}

func (c *chatClient) Complete(ctx context.Context, prompt string) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   1000,
		Temperature: 0.3,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authHeader(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrBackendCallFailed, resp.StatusCode, string(respBody))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrBackendCallFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrInvalidResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}

func bearerAuth(req *http.Request, key string) {
	req.Header.Set("Authorization", "Bearer "+key)
}

func claudeAuth(req *http.Request, key string) {
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", "2023-06-01")
}

func newOpenAIBackend(apiKey string) Backend {
	return newChatClient("https://api.openai.com/v1", "gpt-3.5-turbo", apiKey, bearerAuth)
}

func newDeepSeekBackend(apiKey string) Backend {
	return newChatClient("https://api.deepseek.com/v1", "deepseek-chat", apiKey, bearerAuth)
}

func newClaudeBackend(apiKey string) Backend {
	return newChatClient("https://api.anthropic.com/v1", "claude-3-haiku-20240307", apiKey, claudeAuth)
}
