package utils

import "strings"

// Truncate keeps at most limit runes of s and marks the cut with "...".
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Preview flattens s onto one line before truncating it, for log fields
// carrying prompts and model output.
func Preview(s string, limit int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), limit)
}
