package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCompleter implements core.TextCompleter for testing.
type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

const fakeBankEmail = "Urgent: verify your account at http://fake-bank.com now!"

const fakeBankResponse = `Here is my analysis.

- is_phishing: true
- confidence_score: 0.92
- reasons:
  - Urgent language pressuring the reader
  - Link to a look-alike banking domain
- suspicious_elements:
  - http://fake-bank.com
  - "verify your account"
`

func TestAnalyzer_EndToEnd(t *testing.T) {
	completer := &stubCompleter{response: fakeBankResponse}
	analyzer := core.NewAnalyzer(completer, zap.NewNop())

	result := analyzer.Analyze(context.Background(), fakeBankEmail)

	require.True(t, result.Success)
	require.NotNil(t, result.IsPhishing)
	assert.True(t, *result.IsPhishing)
	require.NotNil(t, result.ConfidenceScore)
	assert.Equal(t, 0.92, *result.ConfidenceScore)
	assert.Equal(t, []string{
		"Urgent language pressuring the reader",
		"Link to a look-alike banking domain",
	}, result.Reasons)
	assert.Equal(t, []string{"http://fake-bank.com", `"verify your account"`}, result.SuspiciousElements)
	assert.Equal(t, []string{"http://fake-bank.com"}, result.ExtractedLinks)
	assert.Equal(t, "Here is my analysis. - is_phishing: true - confidence_score: 0.92 - reasons: - Urgent language pressuring the reader - Link to a look-alike banking domain - suspicious_elements: - http://fake-bank.com - \"verify your account\"", result.RawAnalysis)
	assert.Equal(t, "Analysis concluded that the email is phishing (confidence: 0.92), based on: Urgent language pressuring the reader; Link to a look-alike banking domain.", result.Summary)
	assert.Empty(t, result.Error)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], fakeBankEmail)
}

func TestAnalyzer_ServiceErrorProducesFailureOnly(t *testing.T) {
	completer := &stubCompleter{err: core.NewServiceError("gemini", errors.New("rate limit exceeded"))}
	analyzer := core.NewAnalyzer(completer, zap.NewNop())

	result := analyzer.Analyze(context.Background(), fakeBankEmail)

	assert.False(t, result.Success)
	assert.Equal(t, "gemini: rate limit exceeded", result.Error)
	assert.Nil(t, result.IsPhishing)
	assert.Nil(t, result.ConfidenceScore)
	assert.Nil(t, result.Reasons)
	assert.Nil(t, result.SuspiciousElements)
	assert.Nil(t, result.ExtractedLinks)
	assert.Empty(t, result.RawAnalysis)
	assert.Empty(t, result.Summary)
}

func TestAnalyzer_PlainErrorIsReported(t *testing.T) {
	completer := &stubCompleter{err: context.DeadlineExceeded}
	analyzer := core.NewAnalyzer(completer, zap.NewNop())

	result := analyzer.Analyze(context.Background(), "hello")

	assert.False(t, result.Success)
	assert.Equal(t, context.DeadlineExceeded.Error(), result.Error)
}

func TestAnalyzer_EmptyContent(t *testing.T) {
	completer := &stubCompleter{response: "I need an email to analyze."}
	analyzer := core.NewAnalyzer(completer, zap.NewNop())

	result := analyzer.Analyze(context.Background(), "")

	require.True(t, result.Success)
	assert.Nil(t, result.IsPhishing)
	assert.Nil(t, result.ConfidenceScore)
	assert.Empty(t, result.Reasons)
	assert.Empty(t, result.ExtractedLinks)
	assert.Equal(t, "Analysis concluded that it could not be determined whether the email is phishing (confidence: N/A).", result.Summary)
}
