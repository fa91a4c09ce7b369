package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims a single-line label and removes markup and control characters
func SanitizeString(input string) string {
	out := stripHTML(strings.TrimSpace(input))

	var result strings.Builder
	for _, r := range out {
		if unicode.IsPrint(r) {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SanitizeText sanitizes multi-line text input
func SanitizeText(input string) string {
	// Trim whitespace
	trimmed := strings.TrimSpace(input)

	// Remove any HTML tags
	stripped := stripHTML(trimmed)

	// Remove any control characters except newlines and tabs
	return removeControlChars(stripped)
}

// SanitizePtr applies fn to *p when p is set.
func SanitizePtr(p *string, fn func(string) string) *string {
	if p == nil {
		return nil
	}
	v := fn(*p)
	return &v
}

// stripHTML removes HTML tags from string
func stripHTML(input string) string {
	return htmlTag.ReplaceAllString(input, "")
}

// removeControlChars removes control characters from string
func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
