package core_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		fields   core.ParsedFields
		expected string
	}{
		{
			name: "phishing with reasons",
			fields: core.ParsedFields{
				IsPhishing:      boolPtr(true),
				ConfidenceScore: floatPtr(0.85),
				Reasons:         []string{"Suspicious link", "Urgent tone"},
			},
			expected: "Analysis concluded that the email is phishing (confidence: 0.85), based on: Suspicious link; Urgent tone.",
		},
		{
			name: "not phishing without reasons",
			fields: core.ParsedFields{
				IsPhishing:      boolPtr(false),
				ConfidenceScore: floatPtr(1),
			},
			expected: "Analysis concluded that the email is not phishing (confidence: 1.00).",
		},
		{
			name:     "undetermined without confidence",
			fields:   core.ParsedFields{},
			expected: "Analysis concluded that it could not be determined whether the email is phishing (confidence: N/A).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, core.Summarize(tt.fields))
		})
	}
}

func TestNormalizeLines(t *testing.T) {
	assert.Equal(t, "a b c", core.NormalizeLines("  a  \n\n\tb\r\nc\n"))
	assert.Equal(t, "", core.NormalizeLines(""))
	assert.Equal(t, "keep  inner spacing", core.NormalizeLines("keep  inner spacing"))
}

func TestAssembleResult(t *testing.T) {
	fields := core.ParseResponse(labeledResponse)

	result := core.AssembleResult(fields, []string{"http://bad.example"}, labeledResponse)

	assert.True(t, result.Success)
	assert.Equal(t, fields.IsPhishing, result.IsPhishing)
	assert.Equal(t, fields.ConfidenceScore, result.ConfidenceScore)
	assert.Equal(t, []string{"http://bad.example"}, result.ExtractedLinks)
	assert.Equal(t, "is_phishing: true confidence_score: 0.85 reasons: - Suspicious link - Urgent tone suspicious_elements: - http://bad.example", result.RawAnalysis)
	assert.Empty(t, result.Error)
}

func TestAssembleResult_NilSlicesBecomeEmpty(t *testing.T) {
	result := core.AssembleResult(core.ParsedFields{}, nil, "")

	assert.NotNil(t, result.Reasons)
	assert.NotNil(t, result.SuspiciousElements)
	assert.NotNil(t, result.ExtractedLinks)
}

func TestAnalysisResult_JSONShapes(t *testing.T) {
	t.Run("failure carries only success and error", func(t *testing.T) {
		data, err := json.Marshal(core.FailureResult(errors.New("quota exceeded")))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, map[string]any{"success": false, "error": "quota exceeded"}, decoded)
	})

	t.Run("success carries nulls for absent fields", func(t *testing.T) {
		data, err := json.Marshal(core.AssembleResult(core.ParsedFields{}, nil, "no labels here"))
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, true, decoded["success"])
		assert.Nil(t, decoded["isPhishing"])
		assert.Nil(t, decoded["confidenceScore"])
		assert.Equal(t, []any{}, decoded["reasons"])
		assert.Equal(t, []any{}, decoded["extractedLinks"])
		assert.NotContains(t, decoded, "error")
	})

	t.Run("round trip", func(t *testing.T) {
		original := core.AssembleResult(core.ParseResponse(labeledResponse), []string{"http://bad.example"}, labeledResponse)
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded core.AnalysisResult
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, *original, decoded)
	})
}
