package domain

import (
	"regexp"
	"strings"
)

var (
	unsafeNameRuns = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)
	spaceRuns      = regexp.MustCompile(`\s+`)
)

// maxSafeNameRunes caps generated file and directory names well under
// common filesystem limits while leaving room for collision suffixes.
const maxSafeNameRunes = 160

// SafeFilename reduces an arbitrary display string to a name every
// mainstream filesystem accepts: NULs dropped, runs of disallowed
// characters replaced by a single underscore, whitespace collapsed,
// length capped. An empty result becomes "untitled".
func SafeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\x00", "")
	name = unsafeNameRuns.ReplaceAllString(name, "_")
	name = strings.TrimSpace(spaceRuns.ReplaceAllString(name, " "))
	if name == "" {
		name = "untitled"
	}
	return TruncateRunes(name, maxSafeNameRunes)
}

// TruncateRunes caps s at n runes. Truncation never splits a rune.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ShortDigest returns the first n characters of a digest for display.
func ShortDigest(digest string, n int) string {
	if len(digest) <= n {
		return digest
	}
	return digest[:n]
}
