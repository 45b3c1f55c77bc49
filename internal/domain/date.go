package domain

import "time"

// DateLayout is the ISO calendar date format used in loan identifiers.
const DateLayout = time.DateOnly

// DateOf truncates t to its calendar day, expressed as UTC midnight.
// Loan dates are compared as whole days, never as instants.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day.
func Today() time.Time {
	return DateOf(time.Now())
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
