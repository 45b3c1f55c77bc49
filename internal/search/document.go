package search

import "github.com/listenupapp/circulation/internal/domain"

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ISBN   string
	Title  string
	Author string
	Status string
}

// NewBookDocument converts a book record for indexing.
func NewBookDocument(r domain.BookRecord) *BookDocument {
	return &BookDocument{
		ISBN:   r.ISBN,
		Title:  r.Title,
		Author: r.Author,
		Status: string(r.Status),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		fieldISBN:   d.ISBN,
		fieldTitle:  d.Title,
		fieldAuthor: d.Author,
		fieldStatus: d.Status,
	}
}
