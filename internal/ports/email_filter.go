package ports

import (
	"context"

	"github.com/mikey/llm-phish-detector/internal/core"
)

// EmailAnalyzer classifies parsed messages and raw email text
type EmailAnalyzer interface {
	// AnalyzeEmail checks a parsed message, honouring the sender whitelist
	AnalyzeEmail(ctx context.Context, email *core.Email) *core.AnalysisResult

	// AnalyzeContent checks raw email text
	AnalyzeContent(ctx context.Context, content string) *core.AnalysisResult
}

// EmailFilter defines the interface for email filtering
type EmailFilter interface {
	// ProcessEmail processes an email and returns the analysis result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
