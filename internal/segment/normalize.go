package segment

import "strings"

// Normalize collapses every run of whitespace, including full-width spaces,
// to a single ASCII space and trims the ends. It is used for comparison only;
// segment text is never replaced by its normalized form. Idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
