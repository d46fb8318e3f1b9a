package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestResponseText(t *testing.T) {
	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		expected string
	}{
		{name: "nil response", resp: nil, expected: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, expected: ""},
		{
			name:     "candidate without content",
			resp:     &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			expected: "",
		},
		{
			name: "text parts joined",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{
					genai.Text("is_phishing: true\n"),
					genai.Blob{MIMEType: "image/png"},
					genai.Text("confidence_score: 0.9"),
				}},
			}}},
			expected: "is_phishing: true\nconfidence_score: 0.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, responseText(tt.resp))
		})
	}
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.GeminiConfig{ModelName: "gemini-pro"}, zap.NewNop())

	assert.Error(t, err)
}
