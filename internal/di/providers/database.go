package providers

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/circulation/internal/config"
	"github.com/listenupapp/circulation/internal/store"
	"github.com/listenupapp/circulation/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the Badger store holding books, loans and preferences.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	db, err := store.New(cfg.StorePath(), log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.StorePath())

	return &StoreHandle{Store: db}, nil
}

// CredentialsHandle wraps the SQLite user store with shutdown capability.
type CredentialsHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *CredentialsHandle) Shutdown() error {
	return h.Close()
}

// ProvideCredentials provides the SQLite credential store.
func ProvideCredentials(i do.Injector) (*CredentialsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if err := os.MkdirAll(cfg.Data.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	users, err := sqlite.Open(cfg.CredentialsPath(), log)
	if err != nil {
		return nil, err
	}

	log.Info("Credential store initialized", "path", cfg.CredentialsPath())

	return &CredentialsHandle{Store: users}, nil
}
