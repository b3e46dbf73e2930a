// Package norm provides text normalization for join-key comparison.
//
// HWPX documents produced by different authors frequently mix full-width and
// half-width forms of the same characters, and decomposed Hangul jamo
// sequences that render identically to their precomposed syllables. Outline
// names and stub values are join keys, so they are compared in a normalized
// form rather than byte-for-byte.
package norm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Key returns the canonical comparison form of s: NFC-composed, East-Asian
// width folded, with surrounding whitespace removed.
func Key(s string) string {
	return strings.TrimSpace(width.Fold.String(norm.NFC.String(s)))
}

// Equal reports whether a and b are the same text after normalization.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// IsBlank reports whether s contains no visible text after normalization.
func IsBlank(s string) bool {
	return Key(s) == ""
}
