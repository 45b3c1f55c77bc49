// Package loans keeps the history of every loan and derives filtered and sorted views of it.
package loans

import (
	"fmt"
	"slices"
	"time"

	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/util"
)

// Registry is the ordered record of all loans, oldest first.
// It never changes a loan's business fields; loans are kept after return for history.
//
// Registry is not safe for concurrent use; the library service serialises access.
type Registry struct {
	loans []*domain.Loan
	ids   map[string]struct{}
	now   func() time.Time
}

// New creates an empty registry that reads the current day from the system clock.
func New() *Registry {
	return &Registry{
		ids: make(map[string]struct{}),
		now: domain.Today,
	}
}

// WithClock replaces the registry's clock. Intended for tests and replays.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = func() time.Time { return domain.DateOf(now()) }
	return r
}

// Today returns the registry's current day.
func (r *Registry) Today() time.Time {
	return r.now()
}

// Create records a new loan starting today and due LoanPeriodDays later.
// Returns an invalid argument error if borrower or book is missing.
func (r *Registry) Create(borrower *domain.User, book *domain.Book) (*domain.Loan, error) {
	today := r.now()
	loan, err := domain.NewLoan(borrower, book, today, today.AddDate(0, 0, domain.LoanPeriodDays))
	if err != nil {
		return nil, err
	}
	r.append(loan)
	return loan, nil
}

// Restore appends a loan rebuilt from persistence.
func (r *Registry) Restore(loan *domain.Loan) {
	r.append(loan)
}

// append stores loan, suffixing its id when the same book was already loaned that day.
func (r *Registry) append(loan *domain.Loan) {
	base := loan.ID()
	id := base
	for n := 2; ; n++ {
		if _, taken := r.ids[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
	if id != base {
		loan.WithID(id)
	}
	r.ids[id] = struct{}{}
	r.loans = append(r.loans, loan)
}

// Remove drops loan from the registry. It exists only to undo a Create whose
// catalog transition failed; returned loans are never removed.
func (r *Registry) Remove(loan *domain.Loan) bool {
	i := slices.Index(r.loans, loan)
	if i < 0 {
		return false
	}
	r.loans = slices.Delete(r.loans, i, i+1)
	delete(r.ids, loan.ID())
	return true
}

// Len returns the number of recorded loans.
func (r *Registry) Len() int {
	return len(r.loans)
}

// All returns every loan in insertion order.
func (r *Registry) All() []*domain.Loan {
	return slices.Clone(r.loans)
}

// Get returns the loan with the given id.
func (r *Registry) Get(id string) (*domain.Loan, bool) {
	for _, l := range r.loans {
		if l.ID() == id {
			return l, true
		}
	}
	return nil, false
}

// Current returns loans that have not been returned.
func (r *Registry) Current() []*domain.Loan {
	return util.Filter(r.loans, (*domain.Loan).IsCurrent)
}

// Returned returns loans that have been returned.
func (r *Registry) Returned() []*domain.Loan {
	return util.Filter(r.loans, func(l *domain.Loan) bool { return !l.IsCurrent() })
}

// Overdue returns open loans whose due date is before asOf.
func (r *Registry) Overdue(asOf time.Time) []*domain.Loan {
	return util.Filter(r.loans, func(l *domain.Loan) bool { return l.IsOverdue(asOf) })
}

// CurrentFor returns the open loan of the book with the given ISBN.
func (r *Registry) CurrentFor(isbn string) (*domain.Loan, bool) {
	for _, l := range r.loans {
		if l.IsCurrent() && l.Book().ISBN() == isbn {
			return l, true
		}
	}
	return nil, false
}

// ForBorrower returns the loans of one user, optionally including returned ones.
func (r *Registry) ForBorrower(userID string, includeReturned bool) []*domain.Loan {
	return util.Filter(r.loans, func(l *domain.Loan) bool {
		return l.Borrower().ID == userID && (includeReturned || l.IsCurrent())
	})
}

// Records flattens every loan for persistence, in insertion order.
func (r *Registry) Records() []domain.LoanRecord {
	out := make([]domain.LoanRecord, len(r.loans))
	for i, l := range r.loans {
		out[i] = l.Record()
	}
	return out
}

// Sorted returns every loan ordered by criteria. Overdue status is judged against today.
func (r *Registry) Sorted(criteria domain.LoanSortCriteria, ascending bool) []*domain.Loan {
	return SortLoans(r.loans, criteria, ascending, r.now())
}
