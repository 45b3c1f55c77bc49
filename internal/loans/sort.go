package loans

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/normalize"
	"github.com/listenupapp/circulation/internal/util"
)

// Status ranks used by the STATUS ordering.
const (
	rankReturned = iota
	rankBorrowed
	rankOverdue
)

type loanComparator func(a, b *domain.Loan, now time.Time) int

// loanComparators maps each sort key to its ascending comparison.
//
//nolint:gochecknoglobals // Static strategy table
var loanComparators = map[domain.LoanSortCriteria]loanComparator{
	domain.SortLoanDate: func(a, b *domain.Loan, _ time.Time) int {
		return a.LoanDate().Compare(b.LoanDate())
	},
	domain.SortLoanDueDate: func(a, b *domain.Loan, _ time.Time) int {
		return a.DueDate().Compare(b.DueDate())
	},
	domain.SortLoanReturnDate: func(a, b *domain.Loan, _ time.Time) int {
		return compareReturnDates(a.ReturnDate(), b.ReturnDate())
	},
	domain.SortLoanBookTitle: func(a, b *domain.Loan, _ time.Time) int {
		return normalize.Compare(a.Book().Title, b.Book().Title)
	},
	domain.SortLoanBookAuthor: func(a, b *domain.Loan, _ time.Time) int {
		return normalize.Compare(a.Book().Author, b.Book().Author)
	},
	domain.SortLoanBookISBN: func(a, b *domain.Loan, _ time.Time) int {
		return strings.Compare(a.Book().ISBN(), b.Book().ISBN())
	},
	domain.SortLoanStatus: func(a, b *domain.Loan, now time.Time) int {
		return cmp.Compare(statusRank(a, now), statusRank(b, now))
	},
}

// SortLoans returns a stably sorted copy of loans.
// now is the day STATUS ordering uses to decide which open loans are overdue.
// An unknown criteria leaves loans in input order.
func SortLoans(loans []*domain.Loan, criteria domain.LoanSortCriteria, ascending bool, now time.Time) []*domain.Loan {
	compare, ok := loanComparators[criteria]
	if !ok {
		return slices.Clone(loans)
	}
	return util.SortedStable(loans, func(a, b *domain.Loan) int { return compare(a, b, now) }, ascending)
}

// compareReturnDates orders a missing return date after any present one.
func compareReturnDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func statusRank(l *domain.Loan, now time.Time) int {
	switch {
	case !l.IsCurrent():
		return rankReturned
	case l.IsOverdue(now):
		return rankOverdue
	default:
		return rankBorrowed
	}
}
