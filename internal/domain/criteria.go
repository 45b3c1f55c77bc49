package domain

import (
	"strings"

	domainerrors "github.com/listenupapp/circulation/internal/errors"
)

// SearchField selects which book fields a search looks at.
type SearchField string

// Search fields.
const (
	SearchTitle  SearchField = "TITLE"
	SearchAuthor SearchField = "AUTHOR"
	SearchISBN   SearchField = "ISBN"
	SearchAll    SearchField = "ALL"
)

// BookSortCriteria selects the key books are ordered by.
type BookSortCriteria string

// Book sort keys.
const (
	SortBookTitle  BookSortCriteria = "TITLE"
	SortBookAuthor BookSortCriteria = "AUTHOR"
	SortBookISBN   BookSortCriteria = "ISBN"
	SortBookStatus BookSortCriteria = "STATUS"
)

// LoanSortCriteria selects the key loans are ordered by.
type LoanSortCriteria string

// Loan sort keys.
const (
	SortLoanDate       LoanSortCriteria = "LOAN_DATE"
	SortLoanDueDate    LoanSortCriteria = "DUE_DATE"
	SortLoanReturnDate LoanSortCriteria = "RETURN_DATE"
	SortLoanBookTitle  LoanSortCriteria = "BOOK_TITLE"
	SortLoanBookAuthor LoanSortCriteria = "BOOK_AUTHOR"
	SortLoanBookISBN   LoanSortCriteria = "BOOK_ISBN"
	SortLoanStatus     LoanSortCriteria = "STATUS"
)

//nolint:gochecknoglobals // Static lookup tables for criteria parsing
var (
	searchFields = []SearchField{SearchTitle, SearchAuthor, SearchISBN, SearchAll}
	bookSorts    = []BookSortCriteria{SortBookTitle, SortBookAuthor, SortBookISBN, SortBookStatus}
	loanSorts    = []LoanSortCriteria{
		SortLoanDate, SortLoanDueDate, SortLoanReturnDate,
		SortLoanBookTitle, SortLoanBookAuthor, SortLoanBookISBN, SortLoanStatus,
	}
)

// ParseSearchField parses a search field name, case-insensitively.
func ParseSearchField(s string) (SearchField, error) {
	return parseTag(s, searchFields, "search field")
}

// ParseBookSort parses a book sort key, case-insensitively.
func ParseBookSort(s string) (BookSortCriteria, error) {
	return parseTag(s, bookSorts, "book sort")
}

// ParseLoanSort parses a loan sort key, case-insensitively.
// Dashes and spaces are accepted in place of underscores ("due-date").
func ParseLoanSort(s string) (LoanSortCriteria, error) {
	return parseTag(s, loanSorts, "loan sort")
}

func parseTag[T ~string](s string, known []T, what string) (T, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, k := range known {
		if string(k) == norm {
			return k, nil
		}
	}
	var zero T
	return zero, domainerrors.InvalidArgumentf("unknown %s %q", what, s)
}
