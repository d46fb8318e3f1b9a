package core

import (
	"fmt"
	"strings"
)

const (
	confidenceUnavailable = "N/A"
	reasonSeparator       = "; "
)

// AssembleResult combines parsed fields, extracted links and the raw model text
// into a successful analysis result.
func AssembleResult(fields ParsedFields, links []string, raw string) *AnalysisResult {
	return &AnalysisResult{
		Success:            true,
		IsPhishing:         fields.IsPhishing,
		ConfidenceScore:    fields.ConfidenceScore,
		Reasons:            nonNil(fields.Reasons),
		SuspiciousElements: nonNil(fields.SuspiciousElements),
		ExtractedLinks:     nonNil(links),
		RawAnalysis:        NormalizeLines(raw),
		Summary:            Summarize(fields),
	}
}

// FailureResult builds the failure shape for an error raised by the text-completion service
func FailureResult(err error) *AnalysisResult {
	return &AnalysisResult{
		Success: false,
		Error:   err.Error(),
	}
}

// Summarize renders the verdict, confidence and reasons as one sentence
func Summarize(fields ParsedFields) string {
	var verdict string
	switch {
	case fields.IsPhishing == nil:
		verdict = "it could not be determined whether the email is phishing"
	case *fields.IsPhishing:
		verdict = "the email is phishing"
	default:
		verdict = "the email is not phishing"
	}

	confidence := confidenceUnavailable
	if fields.ConfidenceScore != nil {
		confidence = fmt.Sprintf("%.2f", *fields.ConfidenceScore)
	}

	summary := fmt.Sprintf("Analysis concluded that %s (confidence: %s)", verdict, confidence)
	if len(fields.Reasons) > 0 {
		summary += ", based on: " + strings.Join(fields.Reasons, reasonSeparator)
	}
	return summary + "."
}

// NormalizeLines trims every line and joins the non-empty ones with single spaces
func NormalizeLines(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}
