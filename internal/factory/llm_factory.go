package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/llm-phish-detector/internal/adapters/bedrock"
	"github.com/mikey/llm-phish-detector/internal/adapters/gemini"
	"github.com/mikey/llm-phish-detector/internal/adapters/keyword"
	"github.com/mikey/llm-phish-detector/internal/adapters/openai"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"go.uber.org/zap"
)

// Supported text-completion providers
const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderKeyword = "keyword"
)

// LLMFactory creates text-completion clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextCompleter creates the client for the configured provider.
// Clients holding connections also implement io.Closer.
func (f *LLMFactory) CreateTextCompleter(ctx context.Context) (core.TextCompleter, error) {
	provider := strings.ToLower(f.cfg.GetLLM().Provider)
	f.logger.Info("Creating text-completion client", zap.String("provider", provider))

	switch provider {
	case ProviderGemini:
		return gemini.NewGeminiClient(ctx, f.cfg.GetGemini(), f.logger)
	case ProviderOpenAI:
		return openai.NewOpenAIClient(f.cfg.GetOpenAI(), f.logger)
	case ProviderBedrock:
		return bedrock.NewFromDefaultCredentials(ctx, f.cfg.GetBedrock(), f.logger)
	case ProviderKeyword:
		return keyword.NewCompleter(f.cfg.GetKeyword(), f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
