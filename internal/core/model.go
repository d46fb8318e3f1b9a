package core

import (
	"encoding/json"
	"time"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// AnalysisRequest is the prompt sent to the text-completion service
type AnalysisRequest struct {
	Prompt string
}

// ParsedFields holds the fields extracted from a model response.
// Each field is extracted independently and may be absent or empty.
type ParsedFields struct {
	IsPhishing         *bool
	ConfidenceScore    *float64
	Reasons            []string
	SuspiciousElements []string
}

// AnalysisResult represents the outcome of a phishing analysis.
// A failed result only carries Error; the other fields are never populated.
type AnalysisResult struct {
	Success            bool
	IsPhishing         *bool
	ConfidenceScore    *float64
	Reasons            []string
	SuspiciousElements []string
	ExtractedLinks     []string
	RawAnalysis        string
	Summary            string
	Error              string
}

type successPayload struct {
	Success            bool     `json:"success"`
	IsPhishing         *bool    `json:"isPhishing"`
	ConfidenceScore    *float64 `json:"confidenceScore"`
	Reasons            []string `json:"reasons"`
	SuspiciousElements []string `json:"suspiciousElements"`
	ExtractedLinks     []string `json:"extractedLinks"`
	RawAnalysis        string   `json:"rawAnalysis"`
	Summary            string   `json:"summary"`
}

type failurePayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON emits either the success or the failure shape, never both
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failurePayload{Success: false, Error: r.Error})
	}
	return json.Marshal(successPayload{
		Success:            true,
		IsPhishing:         r.IsPhishing,
		ConfidenceScore:    r.ConfidenceScore,
		Reasons:            nonNil(r.Reasons),
		SuspiciousElements: nonNil(r.SuspiciousElements),
		ExtractedLinks:     nonNil(r.ExtractedLinks),
		RawAnalysis:        r.RawAnalysis,
		Summary:            r.Summary,
	})
}

// UnmarshalJSON reads either shape back into a result
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var probe struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if !probe.Success {
		var f failurePayload
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*r = AnalysisResult{Error: f.Error}
		return nil
	}
	var s successPayload
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = AnalysisResult{
		Success:            true,
		IsPhishing:         s.IsPhishing,
		ConfidenceScore:    s.ConfidenceScore,
		Reasons:            nonNil(s.Reasons),
		SuspiciousElements: nonNil(s.SuspiciousElements),
		ExtractedLinks:     nonNil(s.ExtractedLinks),
		RawAnalysis:        s.RawAnalysis,
		Summary:            s.Summary,
	}
	return nil
}

// CacheEntry is a cached analysis result keyed by content fingerprint
type CacheEntry struct {
	Key       string
	Result    *AnalysisResult
	CreatedAt time.Time
	ExpiresAt time.Time
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
