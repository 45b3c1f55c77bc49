package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/listenupapp/circulation/internal/auth"
	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/listenupapp/circulation/internal/id"
	"github.com/listenupapp/circulation/internal/normalize"
)

// userRow mirrors the users table.
type userRow struct {
	ID           string         `db:"id"`
	Username     string         `db:"username"`
	UsernameKey  string         `db:"username_key"`
	Name         string         `db:"name"`
	PasswordHash string         `db:"password_hash"`
	IsAdmin      bool           `db:"is_admin"`
	CreatedAt    string         `db:"created_at"`
	LastLoginAt  sql.NullString `db:"last_login_at"`
}

func (r *userRow) user() *domain.User {
	return &domain.User{ID: r.ID, Name: r.Name, IsAdmin: r.IsAdmin}
}

func defaultHash(password string) (string, error) {
	return auth.HashPassword(password)
}

// usernameKey folds a username for uniqueness checks and lookups.
func usernameKey(username string) string {
	return normalize.Text(username)
}

// Register creates a user and returns a message for the person registering.
// The first user registered becomes the library's admin.
func (s *Store) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "Username cannot be empty.", domainerrors.InvalidArgument("username cannot be empty")
	}
	if password == "" {
		return "Password cannot be empty.", domainerrors.InvalidArgument("password cannot be empty")
	}

	hash, err := s.hash(password)
	if err != nil {
		return "Registration failed.", domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "Registration failed.", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	key := usernameKey(username)

	countSQL, args, err := s.builder.From(tableUsers).Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
	if err != nil {
		return "Registration failed.", fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := tx.GetContext(ctx, &total, countSQL, args...); err != nil {
		return "Registration failed.", fmt.Errorf("count users: %w", err)
	}

	existsSQL, args, err := s.builder.From(tableUsers).Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colUsernameKey).Eq(key)).
		ToSQL()
	if err != nil {
		return "Registration failed.", fmt.Errorf("build exists: %w", err)
	}
	var existing int
	if err := tx.GetContext(ctx, &existing, existsSQL, args...); err != nil {
		return "Registration failed.", fmt.Errorf("check username: %w", err)
	}
	if existing > 0 {
		return "Username already exists.", domainerrors.AlreadyExistsf("username %q already exists", username)
	}

	row := userRow{
		ID:           id.MustGenerate(id.PrefixUser),
		Username:     username,
		UsernameKey:  key,
		Name:         username,
		PasswordHash: hash,
		IsAdmin:      total == 0,
		CreatedAt:    formatTime(s.now()),
	}

	insertSQL, args, err := s.builder.Insert(tableUsers).Prepared(true).
		Rows(goqu.Record{
			colID:           row.ID,
			colUsername:     row.Username,
			colUsernameKey:  row.UsernameKey,
			colName:         row.Name,
			colPasswordHash: row.PasswordHash,
			colIsAdmin:      row.IsAdmin,
			colCreatedAt:    row.CreatedAt,
		}).
		ToSQL()
	if err != nil {
		return "Registration failed.", fmt.Errorf("build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
		return "Registration failed.", fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "Registration failed.", fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("user registered", "user_id", row.ID, "username", username, "admin", row.IsAdmin)
	if row.IsAdmin {
		return fmt.Sprintf("Registered %s as the library administrator.", username), nil
	}
	return fmt.Sprintf("Registered %s.", username), nil
}

// Authenticate reports whether password is correct for username.
// Unknown users authenticate as false without an error.
func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
	row, err := s.userByKey(ctx, usernameKey(username))
	if errors.Is(err, domainerrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !auth.VerifyPassword(row.PasswordHash, password) {
		s.logger.Debug("password rejected", "user_id", row.ID)
		return false, nil
	}

	if err := s.touchLogin(ctx, row.ID); err != nil {
		s.logger.Warn("failed to record login", "user_id", row.ID, "error", err)
	}
	return true, nil
}

// User returns the user registered as username.
func (s *Store) User(ctx context.Context, username string) (*domain.User, error) {
	row, err := s.userByKey(ctx, usernameKey(username))
	if err != nil {
		return nil, err
	}
	return row.user(), nil
}

// Count returns the number of registered users.
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := s.builder.From(tableUsers).Prepared(true).Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (s *Store) userByKey(ctx context.Context, key string) (*userRow, error) {
	query, args, err := s.builder.From(tableUsers).Prepared(true).
		Select(colID, colUsername, colUsernameKey, colName, colPasswordHash, colIsAdmin, colCreatedAt, colLastLoginAt).
		Where(goqu.C(colUsernameKey).Eq(key)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row userRow
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("user %q not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &row, nil
}

func (s *Store) touchLogin(ctx context.Context, userID string) error {
	query, args, err := s.builder.Update(tableUsers).Prepared(true).
		Set(goqu.Record{colLastLoginAt: formatTime(s.now())}).
		Where(goqu.C(colID).Eq(userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}
