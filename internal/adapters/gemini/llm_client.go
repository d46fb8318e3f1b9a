package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const providerName = "gemini"

// GeminiClient implements core.TextCompleter using Google Gemini
type GeminiClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewGeminiClient creates a new Gemini client. The API key is taken from cfg.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))

	return &GeminiClient{
		client:    client,
		model:     model,
		modelName: cfg.ModelName,
		logger:    logger,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Complete sends the prompt to Gemini and returns the generated text
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", core.NewServiceError(providerName, fmt.Errorf("failed to generate content: %w", err))
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", core.NewServiceError(providerName, core.ErrEmptyResponse)
	}

	c.logger.Debug("Received Gemini response",
		zap.String("model", c.modelName),
		zap.Int("response_length", len(text)))

	return text, nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
