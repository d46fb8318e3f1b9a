package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/llm-phish-detector/internal/core"
	"go.uber.org/zap"
)

type cleaner interface {
	Cleanup(ctx context.Context) error
}

// runCleanup periodically removes expired entries until stopCh is closed
func runCleanup(c cleaner, logger *zap.Logger, every time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}

func encodeResult(result *core.AnalysisResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode cached result: %w", err)
	}
	return string(data), nil
}

func decodeResult(data string) (*core.AnalysisResult, error) {
	var result core.AnalysisResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}
