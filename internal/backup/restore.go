package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/circulation/internal/backup/stream"
	"github.com/listenupapp/circulation/internal/domain"
)

// archiveContents is a fully read and checked backup.
type archiveContents struct {
	manifest Manifest
	books    []domain.BookRecord
	loans    []domain.LoanRecord
	prefs    []domain.Preferences
}

// Restore replaces the stored books, loans and preferences with the archive
// at path. Nothing is written unless the whole archive checks out. The
// running service must reload afterwards.
func (s *Service) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()
	s.logger.Info("starting restore", "path", path, "dry_run", opts.DryRun)

	contents, err := readArchive(path)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Manifest: contents.manifest, DryRun: opts.DryRun}
	if opts.DryRun {
		result.Duration = time.Since(start)
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.store.SaveBooks(ctx, contents.books); err != nil {
		return nil, fmt.Errorf("restore books: %w", err)
	}
	if err := s.store.SaveLoans(ctx, contents.loans); err != nil {
		return nil, fmt.Errorf("restore loans: %w", err)
	}
	if err := s.store.ReplacePreferences(ctx, contents.prefs); err != nil {
		return nil, fmt.Errorf("restore preferences: %w", err)
	}

	result.Duration = time.Since(start)
	s.logger.Info("restore complete",
		"books", contents.manifest.Counts.Books,
		"loans", contents.manifest.Counts.Loans,
		"preferences", contents.manifest.Counts.Preferences,
		"duration", result.Duration)
	return result, nil
}

// Validate checks a backup without importing it.
func (s *Service) Validate(_ context.Context, path string) (*Manifest, error) {
	contents, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	return &contents.manifest, nil
}

func readArchive(path string) (*archiveContents, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	manifest, err := readManifest(&zr.Reader)
	if err != nil {
		return nil, err
	}

	c := &archiveContents{manifest: *manifest}
	if c.books, err = stream.Collect[domain.BookRecord](&zr.Reader, booksFile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedBackup, err)
	}
	if c.loans, err = stream.Collect[domain.LoanRecord](&zr.Reader, loansFile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedBackup, err)
	}
	if c.prefs, err = stream.Collect[domain.Preferences](&zr.Reader, preferencesFile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedBackup, err)
	}

	if err := c.check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedBackup, err)
	}
	return c, nil
}

func readManifest(zr *zip.Reader) (*Manifest, error) {
	var manifest Manifest
	if err := stream.ReadFile(zr, manifestFile, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if manifest.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %s (want %s)", ErrVersionMismatch, manifest.Version, FormatVersion)
	}
	return &manifest, nil
}

// check compares the records against the manifest counts and rejects
// records the store could not key.
func (c *archiveContents) check() error {
	want := c.manifest.Counts
	got := EntityCounts{Books: len(c.books), Loans: len(c.loans), Preferences: len(c.prefs)}
	if got != want {
		return fmt.Errorf("manifest counts %+v, archive holds %+v", want, got)
	}

	isbns := make(map[string]struct{}, len(c.books))
	for _, b := range c.books {
		if b.ISBN == "" {
			return errors.New("book with empty isbn")
		}
		if _, dup := isbns[b.ISBN]; dup {
			return fmt.Errorf("duplicate book %s", b.ISBN)
		}
		if !b.Status.Valid() {
			return fmt.Errorf("book %s has unknown status %q", b.ISBN, b.Status)
		}
		isbns[b.ISBN] = struct{}{}
	}

	loanIDs := make(map[string]struct{}, len(c.loans))
	for _, l := range c.loans {
		if l.ID == "" {
			return errors.New("loan with empty id")
		}
		if _, dup := loanIDs[l.ID]; dup {
			return fmt.Errorf("duplicate loan %s", l.ID)
		}
		loanIDs[l.ID] = struct{}{}
	}

	users := make(map[string]struct{}, len(c.prefs))
	for _, p := range c.prefs {
		if p.UserID == "" {
			return errors.New("preferences with empty user id")
		}
		if _, dup := users[p.UserID]; dup {
			return fmt.Errorf("duplicate preferences for %s", p.UserID)
		}
		users[p.UserID] = struct{}{}
	}
	return nil
}
