// Package util provides common utility functions.
package util

import "slices"

// SortedStable returns a sorted copy of items, leaving items untouched.
// Equal elements keep their input order in both directions: descending
// order negates cmp instead of reversing the ascending result.
func SortedStable[T any](items []T, cmp func(a, b T) int, ascending bool) []T {
	out := slices.Clone(items)
	if ascending {
		slices.SortStableFunc(out, cmp)
	} else {
		slices.SortStableFunc(out, func(a, b T) int { return cmp(b, a) })
	}
	return out
}

// Filter returns the elements of items for which keep returns true.
// The result is never nil so callers can range or marshal it directly.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
