// Package normalize provides the text folding used to compare search queries with book fields.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Text folds s for case-insensitive comparison.
// It strips null bytes, composes Unicode (so "é" typed either way matches),
// trims surrounding whitespace, and lower-cases.
func Text(s string) string {
	s = sanitizeString(s)
	s = norm.NFC.String(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// Blank reports whether s holds nothing but whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Compare orders a and b by their folded form, falling back to the raw
// strings so distinct values never compare equal just because they fold alike.
func Compare(a, b string) int {
	if c := strings.Compare(Text(a), Text(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// sanitizeString removes null bytes, which some imported records carry as
// string terminators.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
