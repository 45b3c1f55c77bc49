package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/circulation/internal/config"
	"github.com/listenupapp/circulation/internal/search"
	"github.com/listenupapp/circulation/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// SearchIndex is nil when full-text search is disabled.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Full-text search disabled")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		Path:   cfg.IndexPath(),
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideIndexer provides the indexer the library service keeps current.
func ProvideIndexer(i do.Injector) (service.BookIndexer, error) {
	handle := do.MustInvoke[*SearchIndexHandle](i)
	if handle.SearchIndex == nil {
		return service.NopIndexer{}, nil
	}
	return handle.SearchIndex, nil
}
