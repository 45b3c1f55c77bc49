// Package catalog owns the library's books: it enforces the status state
// machine and answers search, sort and relevance queries over the collection.
package catalog

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/listenupapp/circulation/internal/logger"
)

// Catalog is the authoritative collection of books keyed by ISBN.
// Iteration follows insertion order so query results and ties are deterministic.
//
// Catalog is not safe for concurrent use; the library service serialises access.
type Catalog struct {
	books  map[string]*domain.Book
	order  []string
	logger *slog.Logger
}

// New creates an empty catalog.
func New(log *slog.Logger) *Catalog {
	return &Catalog{
		books:  make(map[string]*domain.Book),
		logger: logger.OrDiscard(log),
	}
}

// Add creates an available book.
// Returns an invalid argument error on empty fields or a duplicate ISBN.
func (c *Catalog) Add(isbn, title, author string) (*domain.Book, error) {
	book, err := domain.NewBook(isbn, title, author)
	if err != nil {
		return nil, err
	}
	if c.Contains(book.ISBN()) {
		return nil, domainerrors.InvalidArgumentf("book %s already exists", book.ISBN())
	}
	c.insert(book)
	c.logger.Debug("book added", "isbn", book.ISBN(), "title", book.Title)
	return book, nil
}

// Restore inserts books rebuilt from persisted records, keeping their stored status.
// Records that fail validation or repeat an ISBN are skipped and reported in the returned error.
func (c *Catalog) Restore(records []domain.BookRecord) error {
	var errs []error
	for _, r := range records {
		book, err := domain.RestoreBook(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if c.Contains(book.ISBN()) {
			errs = append(errs, domainerrors.InvalidArgumentf("book %s already exists", book.ISBN()))
			continue
		}
		c.insert(book)
	}
	return domainerrors.Join(errs...)
}

func (c *Catalog) insert(book *domain.Book) {
	c.books[book.ISBN()] = book
	c.order = append(c.order, book.ISBN())
}

// Get returns the book with the given ISBN.
func (c *Catalog) Get(isbn string) (*domain.Book, error) {
	book, ok := c.books[strings.TrimSpace(isbn)]
	if !ok {
		return nil, domainerrors.NotFoundf("book %s not found", isbn)
	}
	return book, nil
}

// Contains reports whether a book with the given ISBN is catalogued.
func (c *Catalog) Contains(isbn string) bool {
	_, ok := c.books[strings.TrimSpace(isbn)]
	return ok
}

// Len returns the number of catalogued books.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Loan moves an available book to CHECKED_OUT.
func (c *Catalog) Loan(book *domain.Book) error {
	return c.apply(book, domain.TransitionLoan)
}

// Return moves a checked-out or overdue book back to AVAILABLE.
func (c *Catalog) Return(book *domain.Book) error {
	return c.apply(book, domain.TransitionReturn)
}

// MarkOverdue moves a checked-out book to OVERDUE.
func (c *Catalog) MarkOverdue(book *domain.Book) error {
	return c.apply(book, domain.TransitionOverdue)
}

// Remove takes an available book out of circulation. The book stays catalogued.
func (c *Catalog) Remove(book *domain.Book) error {
	return c.apply(book, domain.TransitionRemove)
}

// apply runs a transition on a book owned by this catalog.
func (c *Catalog) apply(book *domain.Book, t domain.Transition) error {
	if book == nil {
		return domainerrors.InvalidArgument("book is required")
	}
	owned, ok := c.books[book.ISBN()]
	if !ok || owned != book {
		return domainerrors.NotFoundf("book %s not found", book.ISBN())
	}

	from := book.Status()
	if err := book.Apply(t); err != nil {
		return err
	}

	c.logger.Debug("book status changed",
		"isbn", book.ISBN(),
		"transition", string(t),
		"from", from,
		"to", book.Status(),
	)
	return nil
}

// All returns a copy of the ISBN to book mapping.
// Adding or deleting keys in the copy does not affect the catalog.
func (c *Catalog) All() map[string]*domain.Book {
	return maps.Clone(c.books)
}

// Books returns every book in insertion order.
func (c *Catalog) Books() []*domain.Book {
	out := make([]*domain.Book, 0, len(c.order))
	for _, isbn := range c.order {
		out = append(out, c.books[isbn])
	}
	return out
}

// Records flattens every book for persistence, in insertion order.
func (c *Catalog) Records() []domain.BookRecord {
	out := make([]domain.BookRecord, 0, len(c.order))
	for _, isbn := range c.order {
		out = append(out, c.books[isbn].Record())
	}
	return out
}

// ISBNs returns the catalogued ISBNs in insertion order.
func (c *Catalog) ISBNs() []string {
	return slices.Clone(c.order)
}
