package core

import (
	"context"
	"time"
)

// TextCompleter sends a prompt to a text-completion service and returns its reply.
// Implementations make a single attempt and report failures as *ServiceError.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CacheRepository defines the interface for caching analysis results
type CacheRepository interface {
	// Get retrieves a cached entry by key
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// AnalysisObserver records the outcome of analyses
type AnalysisObserver interface {
	ObserveAnalysis(result *AnalysisResult, duration time.Duration)
	ObserveCacheHit()
}
