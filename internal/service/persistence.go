package service

import (
	"context"
	"slices"
	"strings"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
)

// Load fills a freshly created service with the repository's saved state and
// repairs any book whose status disagrees with the loan history:
//   - a checked-out or overdue book without an open loan becomes AVAILABLE,
//   - an open loan on a book that is not out is closed today.
//
// Records that cannot be restored are skipped with a warning. Load fails only
// when the repository itself cannot be read.
func (s *LibraryService) Load(ctx context.Context) error {
	books, err := s.loadBookRecords(ctx)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "load books")
	}
	loanRecords, _, err := s.repo.LoadLoans(ctx)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "load loans")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if restoreErr := s.catalog.Restore(books); restoreErr != nil {
		s.logger.Warn("skipped unreadable book records", "error", restoreErr)
	}

	for _, r := range loanRecords {
		book, err := s.catalog.Get(r.ISBN)
		if err != nil {
			s.logger.Warn("skipped loan for unknown book", "loan_id", r.ID, "isbn", r.ISBN)
			continue
		}
		borrower := &domain.User{ID: r.BorrowerID, Name: r.BorrowerName, IsAdmin: r.BorrowerAdmin}
		loan, err := domain.RestoreLoan(r, borrower, book)
		if err != nil {
			s.logger.Warn("skipped unreadable loan record", "loan_id", r.ID, "error", err)
			continue
		}
		s.loans.Restore(loan)
	}

	repaired := s.reconcile()
	s.logger.Info("library loaded",
		"books", s.catalog.Len(),
		"loans", s.loans.Len(),
		"repaired", repaired,
	)
	if repaired > 0 {
		s.saveAll(ctx)
	}

	if err := s.indexer.IndexBooks(ctx, s.catalog.Records()); err != nil {
		s.logger.Warn("failed to index catalog", "error", err)
	}
	return nil
}

// reconcile enforces that a book is CHECKED_OUT or OVERDUE exactly when it has
// one open loan. Callers hold s.mu.
func (s *LibraryService) reconcile() int {
	repaired := 0
	seen := make(map[string]bool)

	for _, loan := range s.loans.Current() {
		book := loan.Book()
		out := book.Status() == domain.StatusCheckedOut || book.Status() == domain.StatusOverdue
		if !out || seen[book.ISBN()] {
			s.logger.Warn("closing open loan on a book that is not out",
				"loan_id", loan.ID(), "isbn", book.ISBN(), "status", book.Status())
			loan.ReturnOn(s.loans.Today())
			repaired++
			continue
		}
		seen[book.ISBN()] = true
	}

	for _, book := range s.catalog.Books() {
		out := book.Status() == domain.StatusCheckedOut || book.Status() == domain.StatusOverdue
		if !out || seen[book.ISBN()] {
			continue
		}
		s.logger.Warn("book is out without an open loan, marking available",
			"isbn", book.ISBN(), "status", book.Status())
		if err := s.catalog.Return(book); err != nil {
			s.logger.Error("failed to reset book status", "isbn", book.ISBN(), "error", err)
			continue
		}
		repaired++
	}

	return repaired
}

func (s *LibraryService) loadBookRecords(ctx context.Context) ([]domain.BookRecord, error) {
	if ordered, ok := s.repo.(orderedBookLoader); ok {
		records, _, err := ordered.LoadBookRecords(ctx)
		return records, err
	}

	byISBN, present, err := s.repo.LoadBooks(ctx)
	if err != nil || !present {
		return nil, err
	}
	records := make([]domain.BookRecord, 0, len(byISBN))
	for _, r := range byISBN {
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b domain.BookRecord) int { return strings.Compare(a.ISBN, b.ISBN) })
	return records, nil
}

// The save helpers are called with s.mu held. Failures are logged and never
// reach the caller: the in-memory state stays authoritative.

func (s *LibraryService) saveAll(ctx context.Context) {
	s.saveBooks(ctx)
	s.saveLoans(ctx)
}

func (s *LibraryService) saveBooks(ctx context.Context) {
	if err := s.repo.SaveBooks(ctx, s.catalog.Records()); err != nil {
		s.logger.Error("failed to save books", "error", err)
	}
}

func (s *LibraryService) saveLoans(ctx context.Context) {
	if err := s.repo.SaveLoans(ctx, s.loans.Records()); err != nil {
		s.logger.Error("failed to save loans", "error", err)
	}
}

func (s *LibraryService) indexBook(ctx context.Context, book *domain.Book) {
	if err := s.indexer.IndexBook(ctx, book.Record()); err != nil {
		s.logger.Warn("failed to index book", "isbn", book.ISBN(), "error", err)
	}
}
