// Package di provides dependency injection configuration for the circulation shell.
package di

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/listenupapp/circulation/internal/config"
	"github.com/listenupapp/circulation/internal/di/providers"
	"github.com/listenupapp/circulation/internal/loans"
	"github.com/listenupapp/circulation/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// The configuration is loaded by the caller so flags and env files are
// resolved before anything is opened.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCredentials)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideIndexer)

	// Domain
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideLoanRegistry)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideBackups)

	return injector
}

// Bootstrap opens every backend, restores the saved library and brings
// overdue books up to date. It returns the ready service.
func Bootstrap(ctx context.Context, injector *do.RootScope) (*service.LibraryService, error) {
	log, err := do.Invoke[*slog.Logger](injector)
	if err != nil {
		return nil, err
	}
	svc, err := do.Invoke[*service.LibraryService](injector)
	if err != nil {
		return nil, err
	}

	if err := svc.Load(ctx); err != nil {
		return nil, err
	}

	registry := do.MustInvoke[*loans.Registry](injector)
	if marked := svc.RefreshOverdue(ctx, registry.Today()); len(marked) > 0 {
		log.Info("Overdue loans found at startup", "count", len(marked))
	}

	return svc, nil
}
