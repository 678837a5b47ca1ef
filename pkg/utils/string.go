package utils

import (
	"strings"
	"unicode"
)

// simplifyStripped is the set of symbolic characters removed from meeting
// titles so that "Math 101!" and "math101" address the same room.
const simplifyStripped = "()!@#$%^&*`~_=+{}|\\;:'\",.<>/?[]-"

// SimplifyTitle strips whitespace and most symbolic characters from a
// meeting title and lowercases it. Unicode characters outside the stripped
// set are preserved. Returns "" when nothing remains.
func SimplifyTitle(title string) string {
	simplified := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(simplifyStripped, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
	return simplified
}

// SanitizeName removes control characters from a display name and trims
// surrounding whitespace.
func SanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// TruncateString truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
