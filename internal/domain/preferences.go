package domain

import "time"

// Preferences holds a user's saved default criteria for catalog and loan views.
type Preferences struct {
	UserID string `json:"user_id"`

	BookSort          BookSortCriteria `json:"book_sort"`
	BookSortAscending bool             `json:"book_sort_ascending"`
	SearchField       SearchField      `json:"search_field"`

	LoanSort          LoanSortCriteria `json:"loan_sort"`
	LoanSortAscending bool             `json:"loan_sort_ascending"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewPreferences creates preferences with the default criteria.
func NewPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:            userID,
		BookSort:          SortBookTitle,
		BookSortAscending: true,
		SearchField:       SearchAll,
		LoanSort:          SortLoanDueDate,
		LoanSortAscending: true,
		UpdatedAt:         time.Now(),
	}
}

// Normalize replaces unset or unknown criteria with the defaults.
func (p *Preferences) Normalize() {
	defaults := NewPreferences(p.UserID)
	if _, err := ParseBookSort(string(p.BookSort)); err != nil {
		p.BookSort = defaults.BookSort
		p.BookSortAscending = defaults.BookSortAscending
	}
	if _, err := ParseSearchField(string(p.SearchField)); err != nil {
		p.SearchField = defaults.SearchField
	}
	if _, err := ParseLoanSort(string(p.LoanSort)); err != nil {
		p.LoanSort = defaults.LoanSort
		p.LoanSortAscending = defaults.LoanSortAscending
	}
}
