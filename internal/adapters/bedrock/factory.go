package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-phish-detector/internal/config"
	"go.uber.org/zap"
)

// NewFromDefaultCredentials builds a Bedrock client using the default AWS credential chain
func NewFromDefaultCredentials(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg, logger), nil
}
