package core

import (
	"strings"
)

// Field labels the model is asked to answer with. The parser matches on the same labels.
const (
	LabelIsPhishing         = "is_phishing"
	LabelConfidenceScore    = "confidence_score"
	LabelReasons            = "reasons"
	LabelSuspiciousElements = "suspicious_elements"
)

const promptHeader = `Analyze the following email to determine if it's a phishing attempt.
Email:
---
`

const promptFooter = `
---

Return your analysis in the following format:
- ` + LabelIsPhishing + `: true or false
- ` + LabelConfidenceScore + `: a number between 0 and 1
- ` + LabelReasons + `: bullet points describing why this is or isn't phishing
- ` + LabelSuspiciousElements + `: any suspicious links, requests, or language
`

// BuildPrompt embeds the email content verbatim into the analysis instructions
func BuildPrompt(content string) AnalysisRequest {
	var b strings.Builder
	b.Grow(len(promptHeader) + len(content) + len(promptFooter))
	b.WriteString(promptHeader)
	b.WriteString(content)
	b.WriteString(promptFooter)
	return AnalysisRequest{Prompt: b.String()}
}

// EmailFromPrompt recovers the email content from a prompt produced by BuildPrompt.
// Prompts of any other shape are returned unchanged.
func EmailFromPrompt(prompt string) string {
	body, ok := strings.CutPrefix(prompt, promptHeader)
	if !ok {
		return prompt
	}
	body, ok = strings.CutSuffix(body, promptFooter)
	if !ok {
		return prompt
	}
	return body
}
