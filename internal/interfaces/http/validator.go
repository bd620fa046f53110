package http

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxChatMessageLength = 4000
	MaxChatIDLength      = 64
	MaxPhraseLength      = 200
	MaxHistoryDays       = 90
)

// SanitizeString removes null bytes and invalid UTF-8.
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return strings.TrimSpace(s)
}

// TruncateString cuts s to at most maxLen bytes without splitting a rune.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen]
}

// ValidateLength checks if string is within bounds.
func ValidateLength(s string, min, max int) bool {
	l := len(s)
	return l >= min && l <= max
}
