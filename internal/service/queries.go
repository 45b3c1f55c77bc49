package service

import (
	"context"
	"time"

	"github.com/listenupapp/circulation/internal/domain"
)

// Read operations never fail: a missing session or a collaborator error
// yields an empty result.

// Book returns the catalogued book with the given ISBN.
func (s *LibraryService) Book(isbn string) (*domain.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.catalog.Get(isbn)
	return book, err == nil
}

// ViewAllBooksSorted returns the whole catalog ordered by criteria.
func (s *LibraryService) ViewAllBooksSorted(criteria domain.BookSortCriteria, ascending bool) []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Sort(criteria, ascending)
}

// SearchAndSortBooks filters the catalog by query on field and orders the matches.
func (s *LibraryService) SearchAndSortBooks(query string, field domain.SearchField, criteria domain.BookSortCriteria, ascending bool) []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.SearchAndSort(query, field, criteria, ascending)
}

// SearchBooksByRelevance ranks matching books best first.
func (s *LibraryService) SearchBooksByRelevance(query string, field domain.SearchField) []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.SearchByRelevance(query, field)
}

// ViewLoansSorted returns every loan, open and returned, ordered by criteria.
func (s *LibraryService) ViewLoansSorted(criteria domain.LoanSortCriteria, ascending bool) []*domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans.Sorted(criteria, ascending)
}

// GetMyLoans returns the current user's loans in the order they were made.
func (s *LibraryService) GetMyLoans(includeReturned bool) []*domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireUser()
	if err != nil {
		return []*domain.Loan{}
	}
	return s.loans.ForBorrower(user.ID, includeReturned)
}

// OverdueLoans returns open loans due before asOf.
func (s *LibraryService) OverdueLoans(asOf time.Time) []*domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loans.Overdue(asOf)
}

// FullTextSearch looks query up in the full-text index and returns the
// matching catalogued books, best match first.
func (s *LibraryService) FullTextSearch(ctx context.Context, query string, limit int) []*domain.Book {
	isbns, err := s.indexer.Search(ctx, query, limit)
	if err != nil {
		s.logger.Warn("full-text search failed", "query", query, "error", err)
		return []*domain.Book{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books := make([]*domain.Book, 0, len(isbns))
	for _, isbn := range isbns {
		if book, err := s.catalog.Get(isbn); err == nil {
			books = append(books, book)
		}
	}
	return books
}

// Preferences returns a copy of the current user's preferences, or the
// defaults without a session.
func (s *LibraryService) Preferences() domain.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.currentPreferences()
}

// SavePreferences stores prefs as the current user's defaults. Unknown
// criteria are replaced by the defaults. Persistence failures are logged.
func (s *LibraryService) SavePreferences(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireUser()
	if err != nil {
		return domain.Preferences{}, err
	}

	prefs.UserID = user.ID
	prefs.UpdatedAt = time.Now()
	prefs.Normalize()
	s.prefs = &prefs

	if err := s.repo.SavePreferences(ctx, &prefs); err != nil {
		s.logger.Error("failed to save preferences", "user_id", user.ID, "error", err)
	}
	return prefs, nil
}

// ViewAllBooksPreferred sorts the catalog with the user's saved book order.
func (s *LibraryService) ViewAllBooksPreferred() []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.currentPreferences()
	return s.catalog.Sort(p.BookSort, p.BookSortAscending)
}

// SearchBooksPreferred searches the user's saved field and sorts with the
// saved book order.
func (s *LibraryService) SearchBooksPreferred(query string) []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.currentPreferences()
	return s.catalog.SearchAndSort(query, p.SearchField, p.BookSort, p.BookSortAscending)
}

// ViewLoansPreferred sorts every loan with the user's saved loan order.
func (s *LibraryService) ViewLoansPreferred() []*domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.currentPreferences()
	return s.loans.Sorted(p.LoanSort, p.LoanSortAscending)
}

// currentPreferences returns the session's preferences. Callers hold s.mu.
func (s *LibraryService) currentPreferences() *domain.Preferences {
	if s.prefs != nil {
		return s.prefs
	}
	return domain.NewPreferences("")
}
