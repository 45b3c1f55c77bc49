package domain

import (
	"testing"

	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBook_StartsAvailable(t *testing.T) {
	b, err := NewBook("111", "Alpha", "A")
	require.NoError(t, err)

	assert.Equal(t, "111", b.ISBN())
	assert.Equal(t, StatusAvailable, b.Status())
}

func TestNewBook_RequiresFields(t *testing.T) {
	cases := []struct {
		name, isbn, title, author string
	}{
		{"empty isbn", "", "Alpha", "A"},
		{"blank isbn", "   ", "Alpha", "A"},
		{"empty title", "111", "", "A"},
		{"empty author", "111", "Alpha", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBook(tc.isbn, tc.title, tc.author)
			assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
		})
	}
}

func TestBook_Apply_FollowsStateMachine(t *testing.T) {
	b, err := NewBook("111", "Alpha", "A")
	require.NoError(t, err)

	require.NoError(t, b.Apply(TransitionLoan))
	assert.Equal(t, StatusCheckedOut, b.Status())

	require.NoError(t, b.Apply(TransitionOverdue))
	assert.Equal(t, StatusOverdue, b.Status())

	require.NoError(t, b.Apply(TransitionReturn))
	assert.Equal(t, StatusAvailable, b.Status())

	require.NoError(t, b.Apply(TransitionRemove))
	assert.Equal(t, StatusOutOfCirculation, b.Status())
	assert.True(t, b.Status().Terminal())
}

func TestBook_Apply_RejectsIllegalTransitionWithoutChange(t *testing.T) {
	illegal := map[BookStatus][]Transition{
		StatusAvailable:        {TransitionOverdue, TransitionReturn},
		StatusCheckedOut:       {TransitionLoan, TransitionRemove},
		StatusOverdue:          {TransitionLoan, TransitionOverdue, TransitionRemove},
		StatusOutOfCirculation: {TransitionLoan, TransitionOverdue, TransitionReturn, TransitionRemove},
		StatusUnavailable:      {TransitionLoan, TransitionOverdue, TransitionReturn, TransitionRemove},
	}

	for status, ops := range illegal {
		for _, op := range ops {
			b, err := RestoreBook(BookRecord{ISBN: "1", Title: "T", Author: "A", Status: status})
			require.NoError(t, err)

			err = b.Apply(op)

			require.ErrorIs(t, err, domainerrors.ErrInvalidStateTransition, "%s from %s", op, status)
			assert.Equal(t, status, b.Status())

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.TransitionDetails{Operation: string(op), Status: string(status)}, domainErr.Details)
		}
	}
}

func TestRestoreBook_RejectsUnknownStatus(t *testing.T) {
	_, err := RestoreBook(BookRecord{ISBN: "1", Title: "T", Author: "A", Status: "LOST"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidArgument)
}

func TestBook_Record_RoundTrip(t *testing.T) {
	b, err := NewBook("111", "Alpha", "A")
	require.NoError(t, err)
	require.NoError(t, b.Apply(TransitionLoan))

	restored, err := RestoreBook(b.Record())
	require.NoError(t, err)

	assert.Equal(t, b, restored)
}
