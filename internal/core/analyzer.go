package core

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Analyzer runs the prompt, completion, parsing and assembly steps for one email
type Analyzer struct {
	completer TextCompleter
	logger    *zap.Logger
}

// NewAnalyzer creates a new analyzer backed by the given text-completion service
func NewAnalyzer(completer TextCompleter, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		completer: completer,
		logger:    logger,
	}
}

// Analyze classifies the email content. It never fails: an error from the
// text-completion service is reported through the failure shape of the result.
func (a *Analyzer) Analyze(ctx context.Context, content string) *AnalysisResult {
	links := ExtractLinks(content)
	req := BuildPrompt(content)

	raw, err := a.completer.Complete(ctx, req.Prompt)
	if err != nil {
		var svcErr *ServiceError
		if !errors.As(err, &svcErr) {
			err = NewServiceError("", err)
		}
		a.logger.Warn("Text-completion call failed", zap.Error(err))
		return FailureResult(err)
	}

	fields := ParseResponse(raw)
	if fields.IsPhishing == nil {
		a.logger.Debug("No verdict found in model response", zap.Int("response_length", len(raw)))
	}

	return AssembleResult(fields, links, raw)
}
