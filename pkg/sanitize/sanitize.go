// Package sanitize strips markup from free-text fields supplied by students
// and administrators before they are persisted.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes every HTML element and trims surrounding whitespace. Entities
// escaped by the policy are decoded again since the result is stored as plain text.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(input)))
}
