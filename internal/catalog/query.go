package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/normalize"
	"github.com/listenupapp/circulation/internal/util"
)

// Relevance points for how a query matches a single field value.
const (
	ScoreExact     = 10
	ScorePrefix    = 5
	ScoreSubstring = 3
)

// weightedField is one book field a search field covers, with its relevance weight.
type weightedField struct {
	value  func(*domain.Book) string
	weight int
}

func title(b *domain.Book) string  { return b.Title }
func author(b *domain.Book) string { return b.Author }
func isbn(b *domain.Book) string   { return b.ISBN() }

// searchFields maps each search field to the book fields it covers.
// Weights only matter when more than one field is scored.
//
//nolint:gochecknoglobals // Static strategy table
var searchFields = map[domain.SearchField][]weightedField{
	domain.SearchTitle:  {{title, 1}},
	domain.SearchAuthor: {{author, 1}},
	domain.SearchISBN:   {{isbn, 1}},
	domain.SearchAll:    {{title, 3}, {author, 2}, {isbn, 1}},
}

// bookComparators maps each sort key to its ascending comparison.
//
//nolint:gochecknoglobals // Static strategy table
var bookComparators = map[domain.BookSortCriteria]func(a, b *domain.Book) int{
	domain.SortBookTitle:  func(a, b *domain.Book) int { return normalize.Compare(a.Title, b.Title) },
	domain.SortBookAuthor: func(a, b *domain.Book) int { return normalize.Compare(a.Author, b.Author) },
	domain.SortBookISBN:   func(a, b *domain.Book) int { return strings.Compare(a.ISBN(), b.ISBN()) },
	domain.SortBookStatus: func(a, b *domain.Book) int { return strings.Compare(a.Status().String(), b.Status().String()) },
}

// Search returns books whose chosen field contains query, case-insensitively.
// A blank query or unknown field matches nothing.
func (c *Catalog) Search(query string, field domain.SearchField) []*domain.Book {
	return searchBooks(c.Books(), query, field)
}

// Sort returns every book ordered by criteria. Ties keep insertion order.
// An unknown criteria leaves books in insertion order.
func (c *Catalog) Sort(criteria domain.BookSortCriteria, ascending bool) []*domain.Book {
	return SortBooks(c.Books(), criteria, ascending)
}

// SearchAndSort searches, then orders the matches.
func (c *Catalog) SearchAndSort(query string, field domain.SearchField, criteria domain.BookSortCriteria, ascending bool) []*domain.Book {
	found := c.Search(query, field)
	if len(found) == 0 {
		return found
	}
	return SortBooks(found, criteria, ascending)
}

// SearchByRelevance returns books scoring above zero for query, best first.
// Equal scores keep insertion order.
func (c *Catalog) SearchByRelevance(query string, field domain.SearchField) []*domain.Book {
	q := normalize.Text(query)
	if q == "" {
		return []*domain.Book{}
	}

	type scored struct {
		book  *domain.Book
		score int
	}
	var hits []scored
	for _, b := range c.Books() {
		if s := score(b, q, field); s > 0 {
			hits = append(hits, scored{b, s})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	out := make([]*domain.Book, len(hits))
	for i, h := range hits {
		out[i] = h.book
	}
	return out
}

// RelevanceScore scores book against query over field.
func RelevanceScore(book *domain.Book, query string, field domain.SearchField) int {
	return score(book, normalize.Text(query), field)
}

// SortBooks returns a stably sorted copy of books.
func SortBooks(books []*domain.Book, criteria domain.BookSortCriteria, ascending bool) []*domain.Book {
	compare, ok := bookComparators[criteria]
	if !ok {
		return slices.Clone(books)
	}
	return util.SortedStable(books, compare, ascending)
}

func searchBooks(books []*domain.Book, query string, field domain.SearchField) []*domain.Book {
	q := normalize.Text(query)
	fields, ok := searchFields[field]
	if q == "" || !ok {
		return []*domain.Book{}
	}
	return util.Filter(books, func(b *domain.Book) bool {
		for _, f := range fields {
			if strings.Contains(normalize.Text(f.value(b)), q) {
				return true
			}
		}
		return false
	})
}

// score sums weighted match points; q must already be folded.
func score(b *domain.Book, q string, field domain.SearchField) int {
	if q == "" {
		return 0
	}
	total := 0
	for _, f := range searchFields[field] {
		total += f.weight * matchScore(normalize.Text(f.value(b)), q)
	}
	return total
}

func matchScore(value, q string) int {
	switch {
	case value == q:
		return ScoreExact
	case strings.HasPrefix(value, q):
		return ScorePrefix
	case strings.Contains(value, q):
		return ScoreSubstring
	default:
		return 0
	}
}
