package core

import (
	"regexp"
	"strconv"
	"strings"
)

// separator between a label and its value, tolerating markdown emphasis and quotes
const separator = `[*_"'\s]*[:=][*"'\s]*`

var (
	verdictPattern = regexp.MustCompile(
		`(?i)` + regexp.QuoteMeta(LabelIsPhishing) + separator + `(true|false)\b`)
	confidencePattern = regexp.MustCompile(
		`(?i)` + regexp.QuoteMeta(LabelConfidenceScore) + separator + `(0\.\d+|1(?:\.0+)?)\b`)
	reasonsLabel = regexp.MustCompile(
		`(?i)\b` + regexp.QuoteMeta(LabelReasons) + `[*_"']*\s*:`)
	suspiciousLabel = regexp.MustCompile(
		`(?i)` + regexp.QuoteMeta(LabelSuspiciousElements) + `[*_"']*\s*:`)
)

var bulletMarkers = []string{"-", "•"}

// ParseResponse extracts the labeled fields from a free-form model response.
// Every field is extracted on its own; a missing field leaves only that field empty.
func ParseResponse(raw string) ParsedFields {
	return ParsedFields{
		IsPhishing:         parseVerdict(raw),
		ConfidenceScore:    parseConfidence(raw),
		Reasons:            parseReasons(raw),
		SuspiciousElements: parseSuspiciousElements(raw),
	}
}

// parseVerdict returns nil when no is_phishing value can be found
func parseVerdict(raw string) *bool {
	m := verdictPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	v := strings.EqualFold(m[1], "true")
	return &v
}

func parseConfidence(raw string) *float64 {
	m := confidencePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseReasons(raw string) []string {
	loc := reasonsLabel.FindStringIndex(raw)
	if loc == nil {
		return []string{}
	}
	section := raw[loc[1]:]
	if end := suspiciousLabel.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}
	return bulletLines(section)
}

func parseSuspiciousElements(raw string) []string {
	loc := suspiciousLabel.FindStringIndex(raw)
	if loc == nil {
		return []string{}
	}
	return bulletLines(raw[loc[1]:])
}

// bulletLines returns the trimmed text of every line starting with a bullet marker
func bulletLines(section string) []string {
	items := []string{}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range bulletMarkers {
			rest, ok := strings.CutPrefix(line, marker)
			if !ok {
				continue
			}
			if item := strings.TrimSpace(rest); item != "" {
				items = append(items, item)
			}
			break
		}
	}
	return items
}
