package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
)

func libraryWithBooks(t *testing.T) *testEnv {
	t.Helper()

	env := newTestEnv(t)
	env.addBooks(t,
		[3]string{"333", "Gamma Rays", "Zed"},
		[3]string{"111", "Alpha", "Moss"},
		[3]string{"222", "alpha beta", "Able"},
	)
	return env
}

func TestViewAllBooksSorted(t *testing.T) {
	env := libraryWithBooks(t)

	assert.Equal(t, []string{"111", "222", "333"}, isbns(env.svc.ViewAllBooksSorted(domain.SortBookISBN, true)))
	assert.Equal(t, []string{"333", "111", "222"}, isbns(env.svc.ViewAllBooksSorted(domain.SortBookAuthor, false)))
	assert.Equal(t, []string{"333", "111", "222"}, isbns(env.svc.ViewAllBooksSorted("PAGES", true)))
}

func TestSearchAndSortBooks(t *testing.T) {
	env := libraryWithBooks(t)

	got := env.svc.SearchAndSortBooks("ALPHA", domain.SearchTitle, domain.SortBookAuthor, true)
	assert.Equal(t, []string{"222", "111"}, isbns(got))

	assert.Empty(t, env.svc.SearchAndSortBooks("", domain.SearchAll, domain.SortBookTitle, true))
	assert.Empty(t, env.svc.SearchAndSortBooks("zzz", domain.SearchAll, domain.SortBookTitle, true))
}

func TestSearchBooksByRelevance(t *testing.T) {
	env := libraryWithBooks(t)

	got := env.svc.SearchBooksByRelevance("alpha", domain.SearchTitle)
	assert.Equal(t, []string{"111", "222"}, isbns(got))
}

func TestViewLoansSorted(t *testing.T) {
	env := libraryWithBooks(t)
	ctx := context.Background()
	env.login(t, "ada")

	_, err := env.svc.LoanBook(ctx, "333")
	require.NoError(t, err)
	env.clock.today = day("2024-03-02")
	_, err = env.svc.LoanBook(ctx, "111")
	require.NoError(t, err)

	byTitle := env.svc.ViewLoansSorted(domain.SortLoanBookTitle, true)
	assert.Equal(t, []string{"111-2024-03-02", "333-2024-03-01"}, loanIDs(byTitle))

	byDate := env.svc.ViewLoansSorted(domain.SortLoanDate, false)
	assert.Equal(t, []string{"111-2024-03-02", "333-2024-03-01"}, loanIDs(byDate))
}

func TestGetMyLoans(t *testing.T) {
	env := libraryWithBooks(t)
	ctx := context.Background()

	assert.Empty(t, env.svc.GetMyLoans(true))

	env.login(t, "ada")
	_, err := env.svc.LoanBook(ctx, "111")
	require.NoError(t, err)
	_, err = env.svc.LoanBook(ctx, "222")
	require.NoError(t, err)
	_, err = env.svc.ReturnBook(ctx, "111")
	require.NoError(t, err)

	env.login(t, "bob")
	_, err = env.svc.LoanBook(ctx, "333")
	require.NoError(t, err)
	assert.Equal(t, []string{"333-2024-03-01"}, loanIDs(env.svc.GetMyLoans(true)))

	env.login(t, "ada")
	assert.Equal(t, []string{"222-2024-03-01"}, loanIDs(env.svc.GetMyLoans(false)))
	assert.Equal(t, []string{"111-2024-03-01", "222-2024-03-01"}, loanIDs(env.svc.GetMyLoans(true)))
}

func TestLoanIDs_StayUniqueForSameDayReloans(t *testing.T) {
	env := libraryWithBooks(t)
	ctx := context.Background()
	env.login(t, "ada")

	for range 2 {
		_, err := env.svc.LoanBook(ctx, "111")
		require.NoError(t, err)
		_, err = env.svc.ReturnBook(ctx, "111")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"111-2024-03-01", "111-2024-03-01-2"}, loanIDs(env.svc.GetMyLoans(true)))
}

func TestFullTextSearch(t *testing.T) {
	env := newTestEnv(t)
	indexer := &stubIndexer{hits: []string{"222", "404", "111"}}
	env.svc.indexer = indexer
	env.addBooks(t, [3]string{"111", "Alpha", "A"}, [3]string{"222", "Beta", "B"})

	assert.Equal(t, []string{"222", "111"}, isbns(env.svc.FullTextSearch(context.Background(), "x", 10)))
	assert.Len(t, indexer.indexed, 2)

	indexer.err = errors.New("index closed")
	assert.Empty(t, env.svc.FullTextSearch(context.Background(), "x", 10))
	assert.Contains(t, env.logs.String(), "full-text search failed")
}

func TestPreferences_DefaultsWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	prefs := env.svc.Preferences()
	assert.Equal(t, domain.SortBookTitle, prefs.BookSort)
	assert.Equal(t, domain.SearchAll, prefs.SearchField)
	assert.Equal(t, domain.SortLoanDueDate, prefs.LoanSort)

	_, err := env.svc.SavePreferences(context.Background(), prefs)
	assert.ErrorIs(t, err, domainerrors.ErrNoSession)
}

func TestPreferences_SaveNormalizesAndDrivesPreferredViews(t *testing.T) {
	env := libraryWithBooks(t)
	ctx := context.Background()
	user := env.login(t, "ada")

	saved, err := env.svc.SavePreferences(ctx, domain.Preferences{
		BookSort:          domain.SortBookISBN,
		BookSortAscending: false,
		SearchField:       "SUBJECT",
		LoanSort:          domain.SortLoanBookISBN,
		LoanSortAscending: true,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, domain.SearchAll, saved.SearchField)
	assert.Equal(t, saved, env.repo.prefs[user.ID])

	assert.Equal(t, []string{"333", "222", "111"}, isbns(env.svc.ViewAllBooksPreferred()))
	assert.Equal(t, []string{"222", "111"}, isbns(env.svc.SearchBooksPreferred("alpha")))

	_, err = env.svc.LoanBook(ctx, "333")
	require.NoError(t, err)
	_, err = env.svc.LoanBook(ctx, "111")
	require.NoError(t, err)
	assert.Equal(t, []string{"111-2024-03-01", "333-2024-03-01"}, loanIDs(env.svc.ViewLoansPreferred()))
}

func TestPreferences_LoadedAtLoginAndClearedAtLogout(t *testing.T) {
	env := libraryWithBooks(t)
	ctx := context.Background()
	env.login(t, "ada")

	_, err := env.svc.SavePreferences(ctx, domain.Preferences{
		BookSort:    domain.SortBookAuthor,
		SearchField: domain.SearchTitle,
		LoanSort:    domain.SortLoanStatus,
	})
	require.NoError(t, err)

	env.svc.Logout()
	assert.Equal(t, domain.SortBookTitle, env.svc.Preferences().BookSort)

	env.login(t, "ada")
	prefs := env.svc.Preferences()
	assert.Equal(t, domain.SortBookAuthor, prefs.BookSort)
	assert.False(t, prefs.BookSortAscending)
	assert.Equal(t, domain.SearchTitle, prefs.SearchField)
}

func TestPreferences_SaveFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "ada")
	env.repo.fail = true

	saved, err := env.svc.SavePreferences(context.Background(), domain.Preferences{BookSort: domain.SortBookISBN})
	require.NoError(t, err)
	assert.Equal(t, domain.SortBookISBN, saved.BookSort)
	assert.Equal(t, domain.SortBookISBN, env.svc.Preferences().BookSort)
	assert.Contains(t, env.logs.String(), "failed to save preferences")
}
