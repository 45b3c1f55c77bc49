package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/listenupapp/circulation/internal/loans"
	"github.com/listenupapp/circulation/internal/logger"
)

func day(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixedClock returns a settable clock for deterministic loan dates.
type fixedClock struct{ today time.Time }

func (c *fixedClock) now() time.Time { return c.today }

// memoryCredentials is a plain-text credential store for tests.
type memoryCredentials struct {
	mu        sync.Mutex
	passwords map[string]string
	users     map[string]*domain.User
}

func newMemoryCredentials() *memoryCredentials {
	return &memoryCredentials{passwords: map[string]string{}, users: map[string]*domain.User{}}
}

func (m *memoryCredentials) Register(_ context.Context, username, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; ok {
		return "Username already exists.", domainerrors.AlreadyExistsf("username %q already exists", username)
	}
	m.passwords[username] = password
	m.users[username] = &domain.User{ID: "usr-" + username, Name: username, IsAdmin: len(m.users) == 0}
	return "Registered " + username + ".", nil
}

func (m *memoryCredentials) Authenticate(_ context.Context, username, password string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.passwords[username]
	return ok && stored == password, nil
}

func (m *memoryCredentials) User(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, domainerrors.NotFoundf("user %q not found", username)
	}
	return u, nil
}

// recordingRepository keeps the last saved state and can be told to fail.
type recordingRepository struct {
	mu sync.Mutex

	books      map[string]domain.BookRecord
	booksSaved bool
	loans      []domain.LoanRecord
	prefs      map[string]domain.Preferences

	saves int
	fail  bool
}

var errDiskFull = errors.New("disk full")

func newRecordingRepository() *recordingRepository {
	return &recordingRepository{prefs: map[string]domain.Preferences{}}
}

func (r *recordingRepository) LoadBooks(context.Context) (map[string]domain.BookRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.books, r.booksSaved, nil
}

func (r *recordingRepository) SaveBooks(_ context.Context, records []domain.BookRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.fail {
		return errDiskFull
	}
	r.books = make(map[string]domain.BookRecord, len(records))
	for _, rec := range records {
		r.books[rec.ISBN] = rec
	}
	r.booksSaved = true
	return nil
}

func (r *recordingRepository) LoadLoans(context.Context) ([]domain.LoanRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loans, r.loans != nil, nil
}

func (r *recordingRepository) SaveLoans(_ context.Context, records []domain.LoanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.fail {
		return errDiskFull
	}
	r.loans = records
	return nil
}

func (r *recordingRepository) LoadPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.prefs[userID]; ok {
		return &p, nil
	}
	return domain.NewPreferences(userID), nil
}

func (r *recordingRepository) SavePreferences(_ context.Context, prefs *domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return errDiskFull
	}
	r.prefs[prefs.UserID] = *prefs
	return nil
}

// stubIndexer returns canned ISBNs and remembers what it indexed.
type stubIndexer struct {
	hits    []string
	err     error
	indexed []domain.BookRecord
}

func (s *stubIndexer) IndexBooks(_ context.Context, records []domain.BookRecord) error {
	s.indexed = append(s.indexed, records...)
	return nil
}

func (s *stubIndexer) IndexBook(_ context.Context, record domain.BookRecord) error {
	s.indexed = append(s.indexed, record)
	return nil
}

func (s *stubIndexer) Search(context.Context, string, int) ([]string, error) {
	return s.hits, s.err
}

type testEnv struct {
	svc   *LibraryService
	clock *fixedClock
	repo  *recordingRepository
	creds *memoryCredentials
	logs  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		clock: &fixedClock{today: day("2024-03-01")},
		repo:  newRecordingRepository(),
		creds: newMemoryCredentials(),
		logs:  &bytes.Buffer{},
	}
	env.svc = NewLibraryService(Options{
		Loans:       loans.New().WithClock(env.clock.now),
		Repository:  env.repo,
		Credentials: env.creds,
		Logger:      logger.New(logger.Config{Writer: env.logs, Format: logger.FormatJSON, Level: slog.LevelDebug}),
	})
	return env
}

// login registers username (if needed) and logs them in.
func (e *testEnv) login(t *testing.T, username string) *domain.User {
	t.Helper()

	ctx := context.Background()
	if _, err := e.creds.User(ctx, username); err != nil {
		_, err := e.svc.Register(ctx, username, "pw-"+username)
		require.NoError(t, err)
	}
	user, err := e.svc.Login(ctx, username, "pw-"+username)
	require.NoError(t, err)
	return user
}

func (e *testEnv) addBooks(t *testing.T, books ...[3]string) {
	t.Helper()
	for _, b := range books {
		_, err := e.svc.AddBook(context.Background(), b[0], b[1], b[2])
		require.NoError(t, err)
	}
}

func isbns(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ISBN()
	}
	return out
}

func loanIDs(ls []*domain.Loan) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID()
	}
	return out
}
