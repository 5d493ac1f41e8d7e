// Package util collects small string helpers shared across the daemon's
// packages, in the same spirit as the teacher project's util package.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify creates an MQTT-topic-safe slug from the given string, used by
// the telemetry and Home Assistant discovery packages.
func Slugify(s string) string {
	s = strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, s)

	reg := regexp.MustCompile("[^a-z0-9]+")
	s = reg.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// Normalize removes NUL bytes and trims the string, used when a modem
// line or flash-loaded field is not guaranteed to be free of stray
// terminators.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// SanitizeLine strips carriage returns, line feeds and combining marks
// from a raw modem line or SMS body before it is staged, classified or
// logged, matching the modem's plain-ASCII wire protocol.
func SanitizeLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	clean, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return clean
}

// TruncateRunes truncates s to at most n runes, matching the 49-character
// field width used throughout the persisted configuration record.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// JoinWithOr joins a slice of strings with commas and "or" for the last
// element, used to render the accepted SMS verb vocabulary in error
// replies.
func JoinWithOr(items []string) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

// Contains reports whether slice contains item.
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
