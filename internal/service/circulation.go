package service

import (
	"context"
	"time"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
)

// AddBookRequest contains the fields of a new catalog entry.
type AddBookRequest struct {
	ISBN   string `json:"isbn" validate:"notblank,max=32"`
	Title  string `json:"title" validate:"notblank,max=512"`
	Author string `json:"author" validate:"notblank,max=256"`
}

// RenewRequest contains a renewal period in days; zero means the default.
type RenewRequest struct {
	ISBN string `json:"isbn" validate:"notblank"`
	Days int    `json:"days" validate:"gte=0,lte=365"`
}

// AddBook catalogues a new, available book.
func (s *LibraryService) AddBook(ctx context.Context, isbn, title, author string) (*domain.Book, error) {
	if err := s.validator.Validate(AddBookRequest{ISBN: isbn, Title: title, Author: author}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.catalog.Add(isbn, title, author)
	if err != nil {
		return nil, err
	}

	s.logger.Info("book added", "isbn", book.ISBN(), "title", book.Title)
	s.saveBooks(ctx)
	s.indexBook(ctx, book)
	return book, nil
}

// RemoveBook takes an available book out of circulation.
func (s *LibraryService) RemoveBook(ctx context.Context, isbn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.catalog.Get(isbn)
	if err != nil {
		return err
	}
	if err := s.catalog.Remove(book); err != nil {
		return err
	}

	s.logger.Info("book removed from circulation", "isbn", book.ISBN())
	s.saveBooks(ctx)
	s.indexBook(ctx, book)
	return nil
}

// LoanBook lends an available book to the current user. The loan is recorded
// and the book checked out together, or neither happens.
func (s *LibraryService) LoanBook(ctx context.Context, isbn string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	book, err := s.catalog.Get(isbn)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.Loan(book); err != nil {
		return nil, err
	}

	loan, err := s.createLoan(user, book)
	if err != nil {
		if undoErr := s.catalog.Return(book); undoErr != nil {
			s.logger.Error("failed to undo checkout after loan failure",
				"isbn", book.ISBN(), "error", undoErr, "cause", err)
		}
		return nil, err
	}

	s.logger.Info("book loaned",
		"isbn", book.ISBN(),
		"loan_id", loan.ID(),
		"user_id", user.ID,
		"due", loan.DueDate().Format(domain.DateLayout),
	)
	s.saveAll(ctx)
	s.indexBook(ctx, book)
	return loan, nil
}

// ReturnBook checks a loaned or overdue book back in and closes its loan.
// The returned loan is nil only when the catalog had no open loan for the
// book, which is logged as an inconsistency.
func (s *LibraryService) ReturnBook(ctx context.Context, isbn string) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.catalog.Get(isbn)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.Return(book); err != nil {
		return nil, err
	}

	loan, ok := s.loans.CurrentFor(book.ISBN())
	if ok {
		loan.ReturnOn(s.loans.Today())
		s.logger.Info("book returned", "isbn", book.ISBN(), "loan_id", loan.ID())
	} else {
		s.logger.Warn("returned book had no open loan", "isbn", book.ISBN())
		loan = nil
	}

	s.saveAll(ctx)
	s.indexBook(ctx, book)
	return loan, nil
}

// RenewLoan extends the open loan of isbn by days, or by the default renewal
// period when days is 0. Only the borrower or an admin may renew. An overdue
// book keeps its OVERDUE status; only returning it clears that.
func (s *LibraryService) RenewLoan(ctx context.Context, isbn string, days int) (*domain.Loan, error) {
	if err := s.validator.Validate(RenewRequest{ISBN: isbn, Days: days}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.Get(isbn); err != nil {
		return nil, err
	}

	loan, ok := s.loans.CurrentFor(isbn)
	if !ok {
		return nil, domainerrors.NotFoundf("book %s has no open loan", isbn)
	}
	if loan.Borrower().ID != user.ID && !user.IsAdmin {
		return nil, domainerrors.InvalidArgumentf("loan %s belongs to another user", loan.ID())
	}

	loan.Renew(days)
	s.logger.Info("loan renewed", "loan_id", loan.ID(), "due", loan.DueDate().Format(domain.DateLayout))
	s.saveLoans(ctx)
	return loan, nil
}

// RefreshOverdue checks every open loan against asOf and moves the books of
// late loans to OVERDUE. It returns the loans that became overdue.
func (s *LibraryService) RefreshOverdue(ctx context.Context, asOf time.Time) []*domain.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := make([]*domain.Loan, 0)
	for _, loan := range s.loans.Current() {
		days := loan.CheckOverdue(asOf)
		if days == 0 || loan.Book().Status() != domain.StatusCheckedOut {
			continue
		}
		if err := s.catalog.MarkOverdue(loan.Book()); err != nil {
			s.logger.Warn("failed to mark book overdue", "isbn", loan.Book().ISBN(), "error", err)
			continue
		}
		s.logger.Info("loan overdue", "loan_id", loan.ID(), "days_late", days)
		marked = append(marked, loan)
		s.indexBook(ctx, loan.Book())
	}

	if len(marked) > 0 {
		s.saveBooks(ctx)
	}
	return marked
}
