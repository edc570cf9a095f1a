package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/youmio/testnet-gateway/ports"
)

const defaultCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	CompletionsURL string
	HTTPClient     *http.Client
}

type openAIClient struct {
	cfg OpenAIConfig
}

// NewOpenAIClient builds a chat model backed by the OpenAI chat
// completions API. A single request, no retries: the caller's quota
// accounting assumes one call means at most one upstream charge.
func NewOpenAIClient(cfg OpenAIConfig) ports.ChatModel {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(cfg.CompletionsURL) == "" {
		cfg.CompletionsURL = defaultCompletionsURL
	}
	return &openAIClient{cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Reply sends one completion request and returns the lowercased reply.
func (c *openAIClient) Reply(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(completionsRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   150,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CompletionsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completions request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed completionsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("completions request failed: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("completions request failed with status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completions response had no choices")
	}

	// Limbo speaks lowercase only.
	return strings.ToLower(strings.TrimSpace(parsed.Choices[0].Message.Content)), nil
}
