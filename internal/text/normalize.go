// Package text provides the light text normalization applied to TTS input
// before generation. The gateway deliberately stops at form and whitespace
// normalization; anything beyond that is the model's business.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalize applies NFC normalization, strips non-printable control runes,
// and collapses whitespace runs into single spaces.
func Normalize(input string) string {
	normalized := norm.NFC.String(input)
	normalized = stripControlRunes(normalized)
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// stripControlRunes drops control characters while keeping whitespace so the
// whitespace collapse pass still sees newlines and tabs.
func stripControlRunes(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}

		return r
	}, input)
}
