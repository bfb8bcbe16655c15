// Package strutil provides small string helpers shared across packages.
package strutil

import "strings"

// NormalizeASCII lowercases s, replaces every non-ASCII character with a
// space, collapses runs of whitespace and trims the ends. This is the
// canonical form used for catalog names, locality names and user phrases.
func NormalizeASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > 127 {
			b.WriteByte(' ')
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 32
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate truncates a string to a maximum length.
// Uses rune-level truncation to ensure Unicode safety.
// Returns empty string if maxLen <= 0 to prevent slice bounds panic.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
