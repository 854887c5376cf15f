package services

import (
	"regexp"
	"strings"
)

var (
	titleStripRegex = regexp.MustCompile(`[^\w\s]`)
	titleSpaceRegex = regexp.MustCompile(`\s+`)
)

// GenerateChatTitle derives a human-readable chat title from the first
// message: punctuation stripped, whitespace collapsed, truncated to 50 runes.
func GenerateChatTitle(firstMessage string) string {
	cleaned := titleStripRegex.ReplaceAllString(firstMessage, " ")
	cleaned = titleSpaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return cleaned
}
