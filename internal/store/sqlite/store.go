// Package sqlite stores library user credentials in an embedded SQLite file.
package sqlite

import (
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"

	"github.com/listenupapp/circulation/internal/logger"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const (
	driverName = "sqlite"
	dialect    = "sqlite3"

	tableUsers = "users"

	colID           = "id"
	colUsername     = "username"
	colUsernameKey  = "username_key"
	colName         = "name"
	colPasswordHash = "password_hash"
	colIsAdmin      = "is_admin"
	colCreatedAt    = "created_at"
	colLastLoginAt  = "last_login_at"
)

// Store is the SQLite credential store.
type Store struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
	logger  *slog.Logger

	// hash is swappable so tests can use cheap argon2 parameters.
	hash func(password string) (string, error)
	now  func() time.Time
}

// Open creates or opens the credentials database at path.
// Use ":memory:" for a private in-memory database.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:      db,
		builder: goqu.Dialect(dialect),
		logger:  logger.OrDiscard(log),
		hash:    defaultHash,
		now:     time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
