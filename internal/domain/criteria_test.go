package domain

import (
	"testing"

	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriteria(t *testing.T) {
	field, err := ParseSearchField("author")
	require.NoError(t, err)
	assert.Equal(t, SearchAuthor, field)

	sort, err := ParseBookSort(" Status ")
	require.NoError(t, err)
	assert.Equal(t, SortBookStatus, sort)

	loanSort, err := ParseLoanSort("due-date")
	require.NoError(t, err)
	assert.Equal(t, SortLoanDueDate, loanSort)

	_, err = ParseLoanSort("colour")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestPreferences_NormalizeFillsDefaults(t *testing.T) {
	p := &Preferences{UserID: "u1", BookSort: "bogus", SearchField: SearchTitle}

	p.Normalize()

	assert.Equal(t, SortBookTitle, p.BookSort)
	assert.True(t, p.BookSortAscending)
	assert.Equal(t, SearchTitle, p.SearchField)
	assert.Equal(t, SortLoanDueDate, p.LoanSort)
}
