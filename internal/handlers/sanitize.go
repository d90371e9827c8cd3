package handlers

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainText = bluemonday.StrictPolicy()
	richText  = bluemonday.UGCPolicy()
)

// cleanText strips all markup from short fields such as titles and names.
// Entities are decoded again since these values are served as JSON text.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// cleanContent keeps safe formatting in long-form content like the rules page.
func cleanContent(s string) string {
	return strings.TrimSpace(richText.Sanitize(s))
}

func optionalText(s string) *string {
	s = cleanText(s)
	if s == "" {
		return nil
	}
	return &s
}
