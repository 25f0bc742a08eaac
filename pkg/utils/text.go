// Package utils provides shared utilities for text, math, and logging.
package utils

const ellipsis = "..."

// Truncate returns s shortened to at most maxLen characters, with "..."
// marking the cut. The result never exceeds maxLen. If maxLen is 0 or
// negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= len(ellipsis) {
		return s[:maxLen]
	}
	return s[:maxLen-len(ellipsis)] + ellipsis
}
