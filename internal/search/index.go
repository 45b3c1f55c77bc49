// Package search maintains a Bleve full-text index over the catalog for
// typo-tolerant book lookups.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/logger"
)

// SearchIndex wraps a Bleve index of books keyed by ISBN.
//
// All public methods are safe for concurrent use.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	// Path is the index directory. Empty means an in-memory index.
	Path   string
	Logger *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does, forcing a rebuild.
const mappingVersion = "1"

// batchSize bounds the documents committed per Bleve batch.
const batchSize = 500

// NewSearchIndex creates or opens the index at opts.Path. An index written
// with another mapping version, or one that fails to open, is recreated;
// the caller repopulates it with IndexBooks.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := logger.OrDiscard(opts.Logger)

	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: log}, nil
	}

	versionPath := opts.Path + ".version"

	var index bleve.Index
	if _, statErr := os.Stat(opts.Path); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			log.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
		case string(existing) != mappingVersion:
			log.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
		default:
			opened, err := bleve.Open(opts.Path)
			if err != nil {
				log.Warn("failed to open existing index, will recreate", "path", opts.Path, "error", err)
			} else {
				index = opened
			}
		}
	}

	if index == nil {
		if err := os.RemoveAll(opts.Path); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}

		created, err := bleve.New(opts.Path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); err != nil {
			log.Warn("failed to write search version file", "error", err)
		}
		log.Info("created new search index", "path", opts.Path, "mapping_version", mappingVersion)
		index = created
	} else {
		log.Info("opened existing search index", "path", opts.Path)
	}

	return &SearchIndex{index: index, path: opts.Path, logger: log}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBook adds or refreshes one book.
func (s *SearchIndex) IndexBook(ctx context.Context, record domain.BookRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(record.ISBN, NewBookDocument(record).ToMap())
}

// IndexBooks makes the index hold exactly records, deleting documents for
// books that are no longer present.
func (s *SearchIndex) IndexBooks(ctx context.Context, records []domain.BookRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keep := make(map[string]struct{}, len(records))
	for _, r := range records {
		keep[r.ISBN] = struct{}{}
	}

	stale, err := s.staleIDs(ctx, keep)
	if err != nil {
		return err
	}
	if len(stale) > 0 {
		batch := s.index.NewBatch()
		for _, id := range stale {
			batch.Delete(id)
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("delete stale documents: %w", err)
		}
	}

	for start := 0; start < len(records); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(records))

		batch := s.index.NewBatch()
		for _, r := range records[start:end] {
			if err := batch.Index(r.ISBN, NewBookDocument(r).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", r.ISBN, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}

	s.logger.Debug("search index refreshed", "books", len(records), "removed", len(stale))
	return nil
}

// DocumentCount returns the number of indexed books.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

func (s *SearchIndex) staleIDs(ctx context.Context, keep map[string]struct{}) ([]string, error) {
	count, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var stale []string
	for _, hit := range res.Hits {
		if _, ok := keep[hit.ID]; !ok {
			stale = append(stale, hit.ID)
		}
	}
	return stale, nil
}
