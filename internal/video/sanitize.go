// internal/video/sanitize.go
package video

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Replacement is substituted for every character that is illegal in a file name.
const Replacement = "_"

// maxNameBytes is the longest file name accepted by common filesystems.
const maxNameBytes = 255

var (
	// illegalChars are characters not allowed in Windows file names, plus control characters.
	illegalChars = regexp.MustCompile(`[/\?<>\\:\*\|"\x00-\x1f\x80-\x9f]`)

	// reservedNames are device names Windows refuses regardless of extension.
	// Only the stem is replaced; group 2 keeps the extension.
	reservedNames = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)

	// dotsOnly matches "." and "..".
	dotsOnly = regexp.MustCompile(`^\.+$`)

	// trailingDotsSpaces are stripped by Windows and cannot end a name.
	trailingDotsSpaces = regexp.MustCompile(`[\. ]+$`)
)

// SanitizeFilename makes name safe on the most restrictive supported filesystem
// (Windows), replacing offending characters with Replacement.
// SanitizeFilename(SanitizeFilename(x)) == SanitizeFilename(x).
func SanitizeFilename(name string) string {
	name = norm.NFC.String(name)
	name = strings.ToValidUTF8(name, Replacement)

	name = illegalChars.ReplaceAllString(name, Replacement)
	name = dotsOnly.ReplaceAllString(name, Replacement)
	name = reservedNames.ReplaceAllString(name, Replacement+"${2}")
	name = truncateBytes(name, maxNameBytes)

	// Replacing keeps the length, so this cannot push the name over the limit.
	return trailingDotsSpaces.ReplaceAllStringFunc(name, func(m string) string {
		return strings.Repeat(Replacement, len(m))
	})
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
