package logutil

import "strings"

// SanitizeForLog removes newlines and control characters from
// client-provided strings before they reach the log, so a connecting client
// cannot inject fake log entries through its banner or version string.
func SanitizeForLog(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r >= 32 {
			result.WriteRune(r)
		}
	}
	return result.String()
}
