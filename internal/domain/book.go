// Package domain contains the core business entities of the library circulation system.
package domain

import (
	"strings"

	domainerrors "github.com/listenupapp/circulation/internal/errors"
)

// Book is a single inventory item.
// The ISBN never changes once assigned; status changes only through Apply.
type Book struct {
	isbn   string
	Title  string
	Author string
	status BookStatus
}

// BookRecord is the flat persisted form of a book.
type BookRecord struct {
	ISBN   string     `json:"isbn"`
	Title  string     `json:"title"`
	Author string     `json:"author"`
	Status BookStatus `json:"status"`
}

// NewBook creates an available book.
func NewBook(isbn, title, author string) (*Book, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, domainerrors.InvalidArgument("isbn is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, domainerrors.InvalidArgument("title is required")
	}
	if strings.TrimSpace(author) == "" {
		return nil, domainerrors.InvalidArgument("author is required")
	}
	return &Book{
		isbn:   isbn,
		Title:  title,
		Author: author,
		status: StatusAvailable,
	}, nil
}

// RestoreBook rebuilds a book from its persisted record, keeping the stored status.
func RestoreBook(r BookRecord) (*Book, error) {
	b, err := NewBook(r.ISBN, r.Title, r.Author)
	if err != nil {
		return nil, err
	}
	if !r.Status.Valid() {
		return nil, domainerrors.InvalidArgumentf("book %s has unknown status %q", r.ISBN, r.Status)
	}
	b.status = r.Status
	return b, nil
}

// ISBN returns the book's identifier.
func (b *Book) ISBN() string {
	return b.isbn
}

// Status returns the book's current lifecycle state.
func (b *Book) Status() BookStatus {
	return b.status
}

// Apply moves the book through t.
// On an illegal transition the book is left unmodified.
func (b *Book) Apply(t Transition) error {
	next, ok := b.status.Next(t)
	if !ok {
		return domainerrors.InvalidTransition(string(t), b.status.String())
	}
	b.status = next
	return nil
}

// Record flattens the book for persistence.
func (b *Book) Record() BookRecord {
	return BookRecord{
		ISBN:   b.isbn,
		Title:  b.Title,
		Author: b.Author,
		Status: b.status,
	}
}
