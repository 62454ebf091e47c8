package slug

import (
	"regexp"
	"strings"
)

// Package slug derives URL-safe identifiers from document titles.
// The function is deterministic; uniqueness is the repository's job.

var (
	invalidChars = regexp.MustCompile(`[^\w\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Make lower-cases the title, strips every character that is not a word
// character, whitespace, or hyphen, and collapses whitespace runs into
// single hyphens.
func Make(title string) string {
	s := strings.ToLower(title)
	s = invalidChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return whitespace.ReplaceAllString(s, "-")
}
