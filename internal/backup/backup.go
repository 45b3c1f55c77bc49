package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/listenupapp/circulation/internal/backup/stream"
	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/logger"
)

const (
	fileSuffix = ".library.zip"
	idLayout   = "20060102-150405.000"
)

// Store is the persistence a backup reads from and restores into.
type Store interface {
	LoadBookRecords(ctx context.Context) ([]domain.BookRecord, bool, error)
	LoadLoans(ctx context.Context) ([]domain.LoanRecord, bool, error)
	AllPreferences(ctx context.Context) ([]domain.Preferences, error)

	SaveBooks(ctx context.Context, records []domain.BookRecord) error
	SaveLoans(ctx context.Context, records []domain.LoanRecord) error
	ReplacePreferences(ctx context.Context, all []domain.Preferences) error
}

// Service creates, lists and restores backups kept in one directory.
type Service struct {
	store     Store
	backupDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service writing archives under backupDir.
func NewService(s Store, backupDir string, log *slog.Logger) *Service {
	return &Service{
		store:     s,
		backupDir: backupDir,
		logger:    logger.OrDiscard(log),
		now:       time.Now,
	}
}

// WithClock replaces the clock used to name and stamp backups.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create writes the stored books, loans and preferences to a new archive.
func (s *Service) Create(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	createdAt := s.now().UTC()

	if err := os.MkdirAll(s.backupDir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = s.Path("backup-" + createdAt.Format(idLayout))
	}

	s.logger.Info("creating backup", "output", outputPath)

	books, _, err := s.store.LoadBookRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("read books: %w", err)
	}
	loans, _, err := s.store.LoadLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("read loans: %w", err)
	}
	prefs, err := s.store.AllPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	manifest := &Manifest{
		Version:   FormatVersion,
		CreatedAt: createdAt,
		CreatedBy: opts.CreatedBy,
	}

	checksum, err := writeArchive(outputPath, func(zw *zip.Writer) error {
		var err error
		if manifest.Counts.Books, err = writeAll(zw, booksFile, books); err != nil {
			return fmt.Errorf("export books: %w", err)
		}
		if manifest.Counts.Loans, err = writeAll(zw, loansFile, loans); err != nil {
			return fmt.Errorf("export loans: %w", err)
		}
		if manifest.Counts.Preferences, err = writeAll(zw, preferencesFile, prefs); err != nil {
			return fmt.Errorf("export preferences: %w", err)
		}
		if err := stream.WriteFile(zw, manifestFile, manifest); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	result := &Result{
		ID:       backupID(outputPath),
		Path:     outputPath,
		Size:     info.Size(),
		Counts:   manifest.Counts,
		Duration: time.Since(start),
		Checksum: checksum,
	}
	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"books", result.Counts.Books,
		"loans", result.Counts.Loans,
		"duration", result.Duration,
		"checksum", result.Checksum)
	return result, nil
}

// writeArchive writes to a temp file and renames it into place on success.
// It returns the SHA-256 of the finished archive.
func writeArchive(path string, fill func(zw *zip.Writer) error) (string, error) {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	hash := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hash))

	if err := fill(zw); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func writeAll[T any](zw *zip.Writer, path string, items []T) (int, error) {
	w, err := stream.NewWriter(zw, path)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := w.Write(&items[i]); err != nil {
			return w.Count(), err
		}
	}
	return w.Count(), nil
}

// List returns all available backups, newest first.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var backups []Info
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			ID:        strings.TrimSuffix(entry.Name(), fileSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	// Generated ids embed the creation time.
	slices.SortFunc(backups, func(a, b Info) int { return strings.Compare(b.ID, a.ID) })
	return backups, nil
}

// Get returns a backup by ID with the counts from its manifest.
func (s *Service) Get(_ context.Context, id string) (*Info, error) {
	path, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptedBackup, err)
	}
	defer zr.Close()

	manifest, err := readManifest(&zr.Reader)
	if err != nil {
		return nil, err
	}

	return &Info{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: manifest.CreatedAt,
		Counts:    manifest.Counts,
	}, nil
}

// Delete removes a backup.
func (s *Service) Delete(_ context.Context, id string) error {
	path, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	s.logger.Info("backup deleted", "id", id)
	return nil
}

// Path returns the file path for a backup ID.
func (s *Service) Path(id string) string {
	return filepath.Join(s.backupDir, id+fileSuffix)
}

// lookup resolves id to an existing archive inside the backup directory.
func (s *Service) lookup(id string) (string, error) {
	if id == "" || id != filepath.Base(id) {
		return "", ErrBackupNotFound
	}
	path := s.Path(id)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrBackupNotFound
		}
		return "", err
	}
	return path, nil
}

func backupID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), fileSuffix)
}
