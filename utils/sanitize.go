package utils

import "github.com/microcosm-cc/bluemonday"

// Two policies: post and comment bodies keep basic user markup, titles and
// other single-line fields are reduced to plain text.
var (
	ugcPolicy   = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans user-supplied HTML for display, keeping harmless markup.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeText strips all markup from a single-line field such as a title.
func SanitizeText(input string) string {
	return plainPolicy.Sanitize(input)
}
