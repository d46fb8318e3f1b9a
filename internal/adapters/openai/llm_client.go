package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	providerName  = "openai"
	systemMessage = "You are an email security analyst. Answer using exactly the labeled fields you are asked for."
)

// OpenAIClient implements core.TextCompleter using the OpenAI chat completion API
type OpenAIClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client. A non-empty BaseURL points the
// client at an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg config.OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		modelName:   cfg.ModelName,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger,
	}, nil
}

// Complete sends the prompt as a chat completion and returns the reply
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemMessage,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", core.NewServiceError(providerName, fmt.Errorf("failed to create chat completion: %w", err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", core.NewServiceError(providerName, core.ErrEmptyResponse)
	}

	c.logger.Debug("Received OpenAI response",
		zap.String("model", c.modelName),
		zap.String("completion_id", resp.ID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}
