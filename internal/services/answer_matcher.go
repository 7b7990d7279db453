package services

import "strings"

// MatchAnswer reports whether a typed answer matches the expected one. The
// typed answer is trimmed, both sides are compared case-insensitively.
func MatchAnswer(typed, correct string) bool {
	return normalizeAnswer(typed) == strings.ToLower(correct)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
