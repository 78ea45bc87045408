package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// Client sends one prompt to a language model and returns its answer
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMConfig configures an OpenAI compatible chat endpoint
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIClient implements Client with the chat completions API. Gemini and
// other providers are reached through their OpenAI compatible base URL.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient creates a new chat completions client
func NewOpenAIClient(cfg LLMConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfiguration("LLM_API_KEY is required", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}, nil
}

// Complete implements Client
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Kamu asisten data harga beras, padi dan gabah di Jawa Barat. Ikuti format keluaran yang diminta dengan tepat.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", errors.NewLLM("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewLLM("no choices in response", nil)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
