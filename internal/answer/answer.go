// Package answer judges typed input against expected conversions.
package answer

import (
	"strings"
	"unicode"
)

// Table maps a raw hiragana answer to its converted form per context.
type Table map[string]map[string]string

// Convert looks up the converted form of a raw answer within a context.
// Missing entries fall through to the raw answer unchanged.
func (t Table) Convert(raw, context string) string {
	if byContext, ok := t[raw]; ok {
		if converted, ok := byContext[context]; ok {
			return converted
		}
	}
	return raw
}

// Normalize strips all whitespace characters. No other normalization is
// applied; casing and width are compared as typed.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsCorrect reports whether the input equals the expected text once both are
// normalized.
func IsCorrect(input, expected string) bool {
	return Normalize(input) == Normalize(expected)
}

// CommonPrefixLen counts the matching leading runes of a and b. It only
// drives the matched/unmatched display split, never correctness.
func CommonPrefixLen(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n := len(ar)
	if len(br) < n {
		n = len(br)
	}
	for i := 0; i < n; i++ {
		if ar[i] != br[i] {
			return i
		}
	}
	return n
}
