package evidence

import (
	"regexp"
	"strings"
)

const (
	maxSegmentLen  = 64
	maxFilenameLen = 120
)

var pathSeparators = regexp.MustCompile(`[\\/]+`)

// SanitizeSegment turns an arbitrary identifier into a safe path/branch
// segment: lowercased, every run of characters outside [a-z0-9_-] collapsed
// to one underscore, capped at 64 bytes. Idempotent.
func SanitizeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	underscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	out := b.String()
	if len(out) > maxSegmentLen {
		out = out[:maxSegmentLen]
	}
	return out
}

// SanitizeFilename strips path separators from a stored filename and caps it
// at 120 characters. Deliberately looser than SanitizeSegment: case and
// non-ASCII characters are preserved.
func SanitizeFilename(s string) string {
	out := pathSeparators.ReplaceAllString(s, "_")
	runes := []rune(out)
	if len(runes) > maxFilenameLen {
		out = string(runes[:maxFilenameLen])
	}
	return out
}
