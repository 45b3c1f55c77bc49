package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit is used when Search is called with a non-positive limit.
const DefaultLimit = 20

// Search returns the ISBNs of books matching text, best match first.
// A blank query matches nothing.
func (s *SearchIndex) Search(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(text), limit, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	isbns := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		isbns = append(isbns, hit.ID)
	}
	return isbns, nil
}

// buildSearchQuery ORs an exact ISBN hit, title and author matches, a fuzzy
// title match for typos, and a title prefix for partial words.
func buildSearchQuery(text string) query.Query {
	lower := strings.ToLower(text)

	isbn := bleve.NewTermQuery(text)
	isbn.SetField(fieldISBN)
	isbn.SetBoost(5.0)

	title := bleve.NewMatchQuery(text)
	title.SetField(fieldTitle)
	title.SetBoost(3.0)

	author := bleve.NewMatchQuery(text)
	author.SetField(fieldAuthor)
	author.SetBoost(2.0)

	fuzzy := bleve.NewFuzzyQuery(lower)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField(fieldTitle)
	fuzzy.SetBoost(0.8)

	queries := []query.Query{isbn, title, author, fuzzy}

	if len(lower) >= 2 {
		prefix := bleve.NewPrefixQuery(lower)
		prefix.SetField(fieldTitle)
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)

		authorPrefix := bleve.NewPrefixQuery(lower)
		authorPrefix.SetField(fieldAuthor)
		authorPrefix.SetBoost(0.5)
		queries = append(queries, authorPrefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
