package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/circulation/internal/backup"
	"github.com/listenupapp/circulation/internal/catalog"
	"github.com/listenupapp/circulation/internal/config"
	"github.com/listenupapp/circulation/internal/loans"
	"github.com/listenupapp/circulation/internal/service"
)

// ProvideCatalog provides the empty book catalog that Load fills.
func ProvideCatalog(i do.Injector) (*catalog.Catalog, error) {
	log := do.MustInvoke[*slog.Logger](i)
	return catalog.New(log), nil
}

// ProvideLoanRegistry provides the loan registry on the system clock.
func ProvideLoanRegistry(i do.Injector) (*loans.Registry, error) {
	return loans.New(), nil
}

// ProvideLibraryService provides the library service over every backend.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	log := do.MustInvoke[*slog.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	credentials := do.MustInvoke[*CredentialsHandle](i)
	indexer := do.MustInvoke[service.BookIndexer](i)

	return service.NewLibraryService(service.Options{
		Catalog:     do.MustInvoke[*catalog.Catalog](i),
		Loans:       do.MustInvoke[*loans.Registry](i),
		Repository:  storeHandle.Store,
		Credentials: credentials.Store,
		Indexer:     indexer,
		Logger:      log,
	}), nil
}

// ProvideBackups provides the backup service over the Badger store.
func ProvideBackups(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return backup.NewService(storeHandle.Store, cfg.BackupPath(), log), nil
}
