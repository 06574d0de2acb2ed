// Package htmlsanitize strips markup from externally written text before
// it is served to the dashboard.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element from s and returns plain text.
// Entities escaped by the policy are decoded again so "a & b" survives.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no tag delimiters.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
