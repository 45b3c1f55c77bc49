// Package service implements the library's orchestration boundary: one
// LibraryService combines the catalog, the loan registry and the current
// user's session into the operations the shell invokes.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/circulation/internal/catalog"
	"github.com/listenupapp/circulation/internal/domain"
	"github.com/listenupapp/circulation/internal/loans"
	"github.com/listenupapp/circulation/internal/logger"
	"github.com/listenupapp/circulation/internal/ratelimit"
	"github.com/listenupapp/circulation/internal/validation"
)

// Repository persists catalog, loan and preference state.
type Repository interface {
	// LoadBooks returns saved books keyed by ISBN; present is false on a fresh install.
	LoadBooks(ctx context.Context) (books map[string]domain.BookRecord, present bool, err error)
	SaveBooks(ctx context.Context, records []domain.BookRecord) error
	LoadLoans(ctx context.Context) (records []domain.LoanRecord, present bool, err error)
	SaveLoans(ctx context.Context, records []domain.LoanRecord) error
	// LoadPreferences returns defaults for a user who never saved any.
	LoadPreferences(ctx context.Context, userID string) (*domain.Preferences, error)
	SavePreferences(ctx context.Context, prefs *domain.Preferences) error
}

// orderedBookLoader is implemented by repositories that remember the order
// books were added in. Without it restored books are ordered by ISBN.
type orderedBookLoader interface {
	LoadBookRecords(ctx context.Context) ([]domain.BookRecord, bool, error)
}

// Credentials registers and authenticates users.
type Credentials interface {
	Register(ctx context.Context, username, password string) (message string, err error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	User(ctx context.Context, username string) (*domain.User, error)
}

// BookIndexer keeps a full-text index of the catalog.
type BookIndexer interface {
	IndexBooks(ctx context.Context, records []domain.BookRecord) error
	IndexBook(ctx context.Context, record domain.BookRecord) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Login throttling: five attempts per username, then one every 30 seconds.
// A successful login refills the bucket.
const (
	loginBurst           = 5
	loginRefillPerSecond = 1.0 / 30
)

// NopRepository persists nothing and loads an empty library.
type NopRepository struct{}

// LoadBooks reports that no books were ever saved.
func (NopRepository) LoadBooks(context.Context) (map[string]domain.BookRecord, bool, error) {
	return nil, false, nil
}

// SaveBooks is a no-op.
func (NopRepository) SaveBooks(context.Context, []domain.BookRecord) error { return nil }

// LoadLoans reports that no loans were ever saved.
func (NopRepository) LoadLoans(context.Context) ([]domain.LoanRecord, bool, error) {
	return nil, false, nil
}

// SaveLoans is a no-op.
func (NopRepository) SaveLoans(context.Context, []domain.LoanRecord) error { return nil }

// LoadPreferences returns the defaults.
func (NopRepository) LoadPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	return domain.NewPreferences(userID), nil
}

// SavePreferences is a no-op.
func (NopRepository) SavePreferences(context.Context, *domain.Preferences) error { return nil }

// NopIndexer is used when full-text search is disabled.
type NopIndexer struct{}

// IndexBooks is a no-op.
func (NopIndexer) IndexBooks(context.Context, []domain.BookRecord) error { return nil }

// IndexBook is a no-op.
func (NopIndexer) IndexBook(context.Context, domain.BookRecord) error { return nil }

// Search finds nothing.
func (NopIndexer) Search(context.Context, string, int) ([]string, error) { return []string{}, nil }

// Session is the logged-in user of one LibraryService.
type Session struct {
	ID        string
	User      *domain.User
	StartedAt time.Time
}

// Options holds the collaborators of a LibraryService. Nil fields get
// in-memory or no-op defaults.
type Options struct {
	Catalog     *catalog.Catalog
	Loans       *loans.Registry
	Repository  Repository
	Credentials Credentials
	Indexer     BookIndexer
	Logger      *slog.Logger

	// LoginLimiter throttles login attempts per username.
	LoginLimiter *ratelimit.KeyedRateLimiter
}

// LibraryService is safe for concurrent use. One mutex guards the catalog,
// the registry and the session so that a loan and its book status change
// are observed together.
type LibraryService struct {
	mu sync.Mutex

	catalog     *catalog.Catalog
	loans       *loans.Registry
	repo        Repository
	credentials Credentials
	indexer     BookIndexer
	validator   *validation.Validator
	logger      *slog.Logger
	logins      *ratelimit.KeyedRateLimiter

	session *Session
	prefs   *domain.Preferences

	// createLoan records a loan in the registry; replaced in tests to force failures.
	createLoan func(borrower *domain.User, book *domain.Book) (*domain.Loan, error)
}

// NewLibraryService creates a service over opts.
func NewLibraryService(opts Options) *LibraryService {
	log := logger.OrDiscard(opts.Logger)

	s := &LibraryService{
		catalog:     opts.Catalog,
		loans:       opts.Loans,
		repo:        opts.Repository,
		credentials: opts.Credentials,
		indexer:     opts.Indexer,
		validator:   validation.New(),
		logger:      log,
		logins:      opts.LoginLimiter,
	}
	if s.catalog == nil {
		s.catalog = catalog.New(log)
	}
	if s.loans == nil {
		s.loans = loans.New()
	}
	if s.repo == nil {
		s.repo = NopRepository{}
	}
	if s.indexer == nil {
		s.indexer = NopIndexer{}
	}
	if s.logins == nil {
		s.logins = ratelimit.New(loginRefillPerSecond, loginBurst)
	}
	s.createLoan = s.loans.Create

	return s
}
