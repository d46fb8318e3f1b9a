package keyword

import (
	"context"
	"testing"

	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var defaultPhrases = config.KeywordConfig{Phrases: []string{"click here", "free money", "urgent action", " "}}

func TestComplete_MatchesPhrasesCaseInsensitively(t *testing.T) {
	completer := NewCompleter(defaultPhrases, zap.NewNop())
	prompt := core.BuildPrompt("URGENT ACTION required. Click Here to claim FREE money").Prompt

	raw, err := completer.Complete(context.Background(), prompt)
	require.NoError(t, err)

	fields := core.ParseResponse(raw)
	require.NotNil(t, fields.IsPhishing)
	assert.True(t, *fields.IsPhishing)
	require.NotNil(t, fields.ConfidenceScore)
	assert.Equal(t, 1.0, *fields.ConfidenceScore)
	assert.Equal(t, []string{
		`Contains the phrase "click here"`,
		`Contains the phrase "free money"`,
		`Contains the phrase "urgent action"`,
	}, fields.Reasons)
	assert.Equal(t, []string{"click here", "free money", "urgent action"}, fields.SuspiciousElements)
}

func TestComplete_NoMatch(t *testing.T) {
	completer := NewCompleter(defaultPhrases, zap.NewNop())
	prompt := core.BuildPrompt("Lunch on Thursday?").Prompt

	raw, err := completer.Complete(context.Background(), prompt)
	require.NoError(t, err)

	fields := core.ParseResponse(raw)
	require.NotNil(t, fields.IsPhishing)
	assert.False(t, *fields.IsPhishing)
	assert.Nil(t, fields.ConfidenceScore)
	assert.Equal(t, []string{"No known phishing phrases found"}, fields.Reasons)
	assert.Empty(t, fields.SuspiciousElements)
}

func TestComplete_IgnoresPromptInstructions(t *testing.T) {
	// "language" appears only in the instruction template
	completer := NewCompleter(config.KeywordConfig{Phrases: []string{"language"}}, zap.NewNop())

	raw, err := completer.Complete(context.Background(), core.BuildPrompt("hello").Prompt)
	require.NoError(t, err)

	fields := core.ParseResponse(raw)
	require.NotNil(t, fields.IsPhishing)
	assert.False(t, *fields.IsPhishing)
}

func TestComplete_CancelledContext(t *testing.T) {
	completer := NewCompleter(defaultPhrases, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := completer.Complete(ctx, core.BuildPrompt("click here").Prompt)

	assert.ErrorIs(t, err, context.Canceled)
}
