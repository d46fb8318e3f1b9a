package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"go.uber.org/zap"
)

const (
	providerName             = "bedrock"
	anthropicMessagesVersion = "bedrock-2023-05-31"
)

// ModelInvoker is the subset of the Bedrock runtime client used here
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient implements core.TextCompleter using Amazon Bedrock
type BedrockClient struct {
	client      ModelInvoker
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(client ModelInvoker, cfg config.BedrockConfig, logger *zap.Logger) *BedrockClient {
	return &BedrockClient{
		client:      client,
		modelID:     cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		logger:      logger,
	}
}

// Complete invokes the configured model with the prompt and returns its completion
func (c *BedrockClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := c.buildPayload(prompt)
	if err != nil {
		return "", core.NewServiceError(providerName, fmt.Errorf("failed to marshal request payload: %w", err))
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", core.NewServiceError(providerName, fmt.Errorf("failed to invoke model: %w", err))
	}

	text, err := c.extractCompletion(resp.Body)
	if err != nil {
		return "", core.NewServiceError(providerName, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", core.NewServiceError(providerName, core.ErrEmptyResponse)
	}

	c.logger.Debug("Received Bedrock response",
		zap.String("model", c.modelID),
		zap.Int("response_length", len(text)))

	return text, nil
}

// buildPayload encodes the prompt in the request format of the model family
func (c *BedrockClient) buildPayload(prompt string) ([]byte, error) {
	switch {
	case c.isAnthropicTextModel():
		return json.Marshal(map[string]any{
			"prompt":               "\n\nHuman: " + prompt + "\n\nAssistant:",
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	case c.isAnthropicModel():
		return json.Marshal(map[string]any{
			"anthropic_version": anthropicMessagesVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"messages": []map[string]any{
				{"role": "user", "content": prompt},
			},
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]any{
			"inputText": prompt,
			"textGenerationConfig": map[string]any{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]any{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

// extractCompletion reads the generated text out of a model response body
func (c *BedrockClient) extractCompletion(body []byte) (string, error) {
	switch {
	case c.isAnthropicTextModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	case c.isAnthropicModel():
		var messagesResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &messagesResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude messages response: %w", err)
		}
		var b strings.Builder
		for _, block := range messagesResp.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		return b.String(), nil
	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", nil
		}
		return titanResp.Results[0].OutputText, nil
	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			// Not JSON: treat the body as the completion itself
			return string(body), nil
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Response, genericResp.Generation} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAnthropicTextModel checks for Claude models served by the legacy text completion API
func (c *BedrockClient) isAnthropicTextModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude-v2") ||
		strings.HasPrefix(c.modelID, "anthropic.claude-instant")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
