package core

import "regexp"

var linkPattern = regexp.MustCompile(`https?://\S+`)

// ExtractLinks returns every http(s) URL in content in order of appearance.
// Duplicates are kept.
func ExtractLinks(content string) []string {
	links := linkPattern.FindAllString(content, -1)
	if links == nil {
		return []string{}
	}
	return links
}
