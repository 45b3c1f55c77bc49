package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/circulation/internal/domain"
)

func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func sampleBooks() []domain.BookRecord {
	return []domain.BookRecord{
		{ISBN: "9780547928227", Title: "The Hobbit", Author: "J.R.R. Tolkien", Status: domain.StatusAvailable},
		{ISBN: "9780441172719", Title: "Dune", Author: "Frank Herbert", Status: domain.StatusCheckedOut},
		{ISBN: "9780553293357", Title: "Foundation", Author: "Isaac Asimov", Status: domain.StatusAvailable},
		{ISBN: "9780345391803", Title: "The Hitchhiker's Guide to the Galaxy", Author: "Douglas Adams", Status: domain.StatusAvailable},
	}
}

func TestSearchIndex_IndexBooks(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexBooks(context.Background(), sampleBooks()))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestSearchIndex_IndexBooksRemovesStale(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexBooks(ctx, sampleBooks()))
	require.NoError(t, index.IndexBooks(ctx, sampleBooks()[:2]))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := index.Search(ctx, "Foundation", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_ByTitleAuthorAndISBN(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, sampleBooks()))

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "title word", query: "hobbit", want: "9780547928227"},
		{name: "author surname", query: "Asimov", want: "9780553293357"},
		{name: "exact isbn", query: "9780441172719", want: "9780441172719"},
		{name: "typo in title", query: "dyne", want: "9780441172719"},
		{name: "title prefix", query: "hitch", want: "9780345391803"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := index.Search(ctx, tt.query, 10)
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			assert.Equal(t, tt.want, hits[0])
		})
	}
}

func TestSearch_BlankQuery(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexBooks(context.Background(), sampleBooks()))

	hits, err := index.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearch_Limit(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	require.NoError(t, index.IndexBooks(ctx, sampleBooks()))

	hits, err := index.Search(ctx, "the", 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), 1)
}

func TestIndexBook_UpdatesExisting(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()
	books := sampleBooks()
	require.NoError(t, index.IndexBooks(ctx, books))

	updated := books[1]
	updated.Status = domain.StatusAvailable
	require.NoError(t, index.IndexBook(ctx, updated))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestNewSearchIndex_OnDiskReopenAndVersionRebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.bleve")
	ctx := context.Background()

	index, err := NewSearchIndex(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, index.IndexBooks(ctx, sampleBooks()))
	require.NoError(t, index.Close())

	index, err = NewSearchIndex(Options{Path: path})
	require.NoError(t, err)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(path+".version", []byte("0"), 0o600))

	index, err = NewSearchIndex(Options{Path: path})
	require.NoError(t, err)
	defer index.Close()
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
