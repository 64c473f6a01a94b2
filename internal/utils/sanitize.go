package utils

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Replacement is written in place of control characters.
const Replacement = '�'

// SanitizeLine makes untrusted text safe to print on one terminal line.
// Escape sequences are removed, line breaks and tabs become spaces and any
// other control character is replaced.
func SanitizeLine(s string) string {
	return sanitize(s, false)
}

// SanitizeText is SanitizeLine but keeps newlines.
func SanitizeText(s string) string {
	return sanitize(s, true)
}

func sanitize(s string, keepNewlines bool) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' && keepNewlines:
			b.WriteRune(r)
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
			b.WriteRune(Replacement)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
