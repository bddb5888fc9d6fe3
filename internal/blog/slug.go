package blog

import (
	"regexp"
	"strings"
)

var (
	nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)
	slugRe    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// GenerateSlug lowercases title, collapses every run of characters outside
// [a-z0-9] into one hyphen and trims hyphens from both ends.
func GenerateSlug(title string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
