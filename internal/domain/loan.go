package domain

import (
	"time"

	domainerrors "github.com/listenupapp/circulation/internal/errors"
)

const (
	// LoanPeriodDays is how long a new loan runs before it is due.
	LoanPeriodDays = 21
	// DefaultRenewalDays is used when a renewal does not name a length.
	DefaultRenewalDays = 14
)

// Loan is one borrowing record.
// Borrower, book and loan date are fixed at creation; the due date moves only by renewal.
type Loan struct {
	id         string
	borrower   *User
	book       *Book
	loanDate   time.Time
	dueDate    time.Time
	returnDate *time.Time
	returned   bool
}

// LoanRecord is the flat persisted form of a loan.
type LoanRecord struct {
	ID            string     `json:"id"`
	BorrowerID    string     `json:"borrower_id"`
	BorrowerName  string     `json:"borrower_name"`
	BorrowerAdmin bool       `json:"borrower_admin"`
	ISBN          string     `json:"isbn"`
	LoanDate      time.Time  `json:"loan_date"`
	DueDate       time.Time  `json:"due_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
}

// LoanID derives a loan identifier from the book and the day it was loaned.
func LoanID(isbn string, loanDate time.Time) string {
	return isbn + "-" + DateOf(loanDate).Format(DateLayout)
}

// NewLoan creates an open loan. It does not touch the book's status.
func NewLoan(borrower *User, book *Book, loanDate, dueDate time.Time) (*Loan, error) {
	if borrower == nil {
		return nil, domainerrors.InvalidArgument("borrower is required")
	}
	if book == nil {
		return nil, domainerrors.InvalidArgument("book is required")
	}
	loanDate = DateOf(loanDate)
	return &Loan{
		id:       LoanID(book.ISBN(), loanDate),
		borrower: borrower,
		book:     book,
		loanDate: loanDate,
		dueDate:  DateOf(dueDate),
	}, nil
}

// RestoreLoan rebuilds a persisted loan against live borrower and book references.
func RestoreLoan(r LoanRecord, borrower *User, book *Book) (*Loan, error) {
	l, err := NewLoan(borrower, book, r.LoanDate, r.DueDate)
	if err != nil {
		return nil, err
	}
	if r.ID != "" {
		l.id = r.ID
	}
	if r.ReturnDate != nil {
		l.ReturnOn(*r.ReturnDate)
	}
	return l, nil
}

// ID returns the loan identifier.
func (l *Loan) ID() string { return l.id }

// Borrower returns the user who borrowed the book.
func (l *Loan) Borrower() *User { return l.borrower }

// Book returns the borrowed book.
func (l *Loan) Book() *Book { return l.book }

// LoanDate returns the day the loan started.
func (l *Loan) LoanDate() time.Time { return l.loanDate }

// DueDate returns the day the book is due back.
func (l *Loan) DueDate() time.Time { return l.dueDate }

// ReturnDate returns the day the book came back, or nil while the loan is open.
func (l *Loan) ReturnDate() *time.Time {
	if l.returnDate == nil {
		return nil
	}
	d := *l.returnDate
	return &d
}

// Returned reports whether the book has been returned.
func (l *Loan) Returned() bool { return l.returned }

// IsCurrent reports whether the loan is still open.
func (l *Loan) IsCurrent() bool { return l.returnDate == nil }

// IsOverdue reports whether the loan is open and its due date is before asOf.
func (l *Loan) IsOverdue(asOf time.Time) bool {
	return l.IsCurrent() && l.dueDate.Before(DateOf(asOf))
}

// Renew extends the due date by days, or by DefaultRenewalDays when days is 0.
// Renewing a returned loan is not rejected here; the service only renews current loans.
func (l *Loan) Renew(days int) {
	if days == 0 {
		days = DefaultRenewalDays
	}
	l.dueDate = l.dueDate.AddDate(0, 0, days)
}

// ReturnOn closes the loan on day. Closing an already returned loan is a no-op.
func (l *Loan) ReturnOn(day time.Time) {
	if l.returned {
		return
	}
	d := DateOf(day)
	l.returned = true
	l.returnDate = &d
}

// ReturnNow closes the loan today.
func (l *Loan) ReturnNow() {
	l.ReturnOn(Today())
}

// CheckOverdue returns how many days past due the loan is as of asOf.
// A positive result means the caller should move the book to OVERDUE.
func (l *Loan) CheckOverdue(asOf time.Time) int {
	if l.returned {
		return 0
	}
	asOf = DateOf(asOf)
	if !asOf.After(l.dueDate) {
		return 0
	}
	return DaysBetween(l.dueDate, asOf)
}

// Record flattens the loan for persistence.
func (l *Loan) Record() LoanRecord {
	return LoanRecord{
		ID:            l.id,
		BorrowerID:    l.borrower.ID,
		BorrowerName:  l.borrower.Name,
		BorrowerAdmin: l.borrower.IsAdmin,
		ISBN:          l.book.ISBN(),
		LoanDate:      l.loanDate,
		DueDate:       l.dueDate,
		ReturnDate:    l.ReturnDate(),
	}
}

// WithID renames the loan. The registry uses it to keep ids unique.
func (l *Loan) WithID(id string) *Loan {
	l.id = id
	return l
}
