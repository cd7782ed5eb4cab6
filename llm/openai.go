package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client on top of any OpenAI-compatible chat API.
// The default base URL points at DeepSeek; pass WithBaseURL to target
// api.openai.com or a self-hosted gateway.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

var _ Client = (*OpenAIClient)(nil)

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL     string
	model       string
	temperature float32
	httpClient  *http.Client
}

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = baseURL
	}
}

// WithModel sets the chat model name.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) {
		c.model = model
	}
}

// WithTemperature sets the sampling temperature. Grading wants 0.
func WithTemperature(t float32) OpenAIOption {
	return func(c *openAIConfig) {
		c.temperature = t
	}
}

// WithHTTPClient sets a custom HTTP client, e.g. with a transport-level timeout.
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openAIConfig) {
		c.httpClient = hc
	}
}

// NewOpenAIClient creates a chat client for an OpenAI-compatible endpoint.
// An empty apiKey falls back to the DEEPSEEK_API_KEY and OPENAI_API_KEY
// environment variables.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	cfg := &openAIConfig{
		baseURL: "https://api.deepseek.com/v1",
		model:   "deepseek-chat",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	apiConfig := openai.DefaultConfig(apiKey)
	apiConfig.BaseURL = cfg.baseURL
	if cfg.httpClient != nil {
		apiConfig.HTTPClient = cfg.httpClient
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(apiConfig),
		model:       cfg.model,
		temperature: cfg.temperature,
	}, nil
}

// Complete sends the prompt as a single user message and returns the reply text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
