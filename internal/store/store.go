// Package store persists the library's books, loans and per-user preferences
// in an embedded Badger database.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/logger"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	Books       *Entity[domain.BookRecord]
	Loans       *Entity[domain.LoanRecord]
	Preferences *Entity[domain.Preferences]
}

// New opens (creating if needed) the database at path.
func New(path string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, log)
}

// NewInMemory opens a database that lives only as long as the Store.
func NewInMemory(log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, log)
}

func open(opts badger.Options, log *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.OrDiscard(log),
	}
	s.Books = NewEntity[domain.BookRecord](s, bookPrefix)
	s.Loans = NewEntity[domain.LoanRecord](s, loanPrefix)
	s.Preferences = NewEntity[domain.Preferences](s, preferencesPrefix)

	s.logger.Info("Badger database opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// LoadBooks returns every saved book keyed by ISBN. present is false when
// books have never been saved, so callers can tell a fresh install from an
// emptied catalog.
func (s *Store) LoadBooks(ctx context.Context) (map[string]domain.BookRecord, bool, error) {
	records, present, err := s.Books.Ordered(ctx)
	if err != nil || !present {
		return nil, present, err
	}

	books := make(map[string]domain.BookRecord, len(records))
	for _, r := range records {
		books[r.ISBN] = *r
	}
	return books, true, nil
}

// LoadBookRecords returns saved books in the order they were saved.
func (s *Store) LoadBookRecords(ctx context.Context) ([]domain.BookRecord, bool, error) {
	records, present, err := s.Books.Ordered(ctx)
	if err != nil || !present {
		return nil, present, err
	}
	return deref(records), true, nil
}

// SaveBooks replaces the saved catalog with records, keeping their order.
func (s *Store) SaveBooks(ctx context.Context, records []domain.BookRecord) error {
	ids := make([]string, len(records))
	items := make([]*domain.BookRecord, len(records))
	for i := range records {
		ids[i] = records[i].ISBN
		items[i] = &records[i]
	}

	if err := s.Books.Replace(ctx, ids, items); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	s.logger.Debug("books saved", "count", len(records))
	return nil
}

// LoadLoans returns saved loans in the order they were created.
func (s *Store) LoadLoans(ctx context.Context) ([]domain.LoanRecord, bool, error) {
	records, present, err := s.Loans.Ordered(ctx)
	if err != nil || !present {
		return nil, present, err
	}
	return deref(records), true, nil
}

// SaveLoans replaces the saved loan history with records.
func (s *Store) SaveLoans(ctx context.Context, records []domain.LoanRecord) error {
	ids := make([]string, len(records))
	items := make([]*domain.LoanRecord, len(records))
	for i := range records {
		ids[i] = records[i].ID
		items[i] = &records[i]
	}

	if err := s.Loans.Replace(ctx, ids, items); err != nil {
		return fmt.Errorf("save loans: %w", err)
	}
	s.logger.Debug("loans saved", "count", len(records))
	return nil
}

// LoadPreferences returns the user's saved preferences, or defaults when the
// user has never saved any.
func (s *Store) LoadPreferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	prefs, err := s.Preferences.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return domain.NewPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	prefs.Normalize()
	return prefs, nil
}

// SavePreferences stores prefs under its user id.
func (s *Store) SavePreferences(ctx context.Context, prefs *domain.Preferences) error {
	if prefs == nil || prefs.UserID == "" {
		return errors.New("save preferences: user id is required")
	}

	stored := *prefs
	stored.UpdatedAt = time.Now().UTC()
	if err := s.Preferences.Put(ctx, stored.UserID, &stored); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// AllPreferences returns every user's saved preferences ordered by user id.
func (s *Store) AllPreferences(ctx context.Context) ([]domain.Preferences, error) {
	var all []domain.Preferences
	for prefs, err := range s.Preferences.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list preferences: %w", err)
		}
		all = append(all, *prefs)
	}
	return all, nil
}

// ReplacePreferences swaps every saved preference set for all, keeping
// their UpdatedAt stamps.
func (s *Store) ReplacePreferences(ctx context.Context, all []domain.Preferences) error {
	ids := make([]string, len(all))
	items := make([]*domain.Preferences, len(all))
	for i := range all {
		if all[i].UserID == "" {
			return fmt.Errorf("replace preferences: record %d has no user id", i)
		}
		ids[i] = all[i].UserID
		items[i] = &all[i]
	}

	if err := s.Preferences.Replace(ctx, ids, items); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}

func deref[T any](items []*T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}
