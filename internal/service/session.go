package service

import (
	"context"
	"time"

	"github.com/listenupapp/circulation/internal/domain"
	domainerrors "github.com/listenupapp/circulation/internal/errors"
	"github.com/listenupapp/circulation/internal/id"
	"github.com/listenupapp/circulation/internal/normalize"
)

// RegisterRequest contains the credentials of a new user.
type RegisterRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Register creates a user through the credential store and returns its message.
func (s *LibraryService) Register(ctx context.Context, username, password string) (string, error) {
	if err := s.validator.Validate(RegisterRequest{Username: username, Password: password}); err != nil {
		return "", err
	}
	if s.credentials == nil {
		return "", domainerrors.Internal("no credential store configured")
	}
	return s.credentials.Register(ctx, username, password)
}

// Login authenticates username and makes them the current user, replacing
// any previous session.
func (s *LibraryService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if err := s.validator.Validate(LoginRequest{Username: username, Password: password}); err != nil {
		return nil, err
	}
	if s.credentials == nil {
		return nil, domainerrors.Internal("no credential store configured")
	}

	key := normalize.Text(username)
	if !s.logins.Allow(key) {
		s.logger.Warn("login throttled", "username", username)
		return nil, domainerrors.RateLimited("too many login attempts, try again later", s.logins.RetryAfter(key))
	}

	ok, err := s.credentials.Authenticate(ctx, username, password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "authenticate")
	}
	if !ok {
		s.logger.Info("login rejected", "username", username)
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	user, err := s.credentials.User(ctx, username)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load user")
	}
	s.logins.Forget(key)

	prefs := s.loadPreferences(ctx, user.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startSession(user)
	s.prefs = prefs

	s.logger.Info("user logged in", "user_id", user.ID, "session_id", s.session.ID)
	return user, nil
}

// SetCurrentUser starts a session for a user authenticated elsewhere.
// A nil user ends the session.
func (s *LibraryService) SetCurrentUser(ctx context.Context, user *domain.User) {
	if user == nil {
		s.Logout()
		return
	}
	prefs := s.loadPreferences(ctx, user.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startSession(user)
	s.prefs = prefs
}

// Logout ends the current session. It is a no-op without one.
func (s *LibraryService) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.logger.Info("user logged out", "user_id", s.session.User.ID, "session_id", s.session.ID)
	}
	s.session = nil
	s.prefs = nil
}

// CurrentUser returns the logged-in user.
func (s *LibraryService) CurrentUser() (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, false
	}
	return s.session.User, true
}

// Session returns a copy of the current session.
func (s *LibraryService) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

func (s *LibraryService) startSession(user *domain.User) {
	s.session = &Session{
		ID:        id.NewSession(),
		User:      user,
		StartedAt: time.Now(),
	}
}

// requireUser returns the session user. Callers hold s.mu.
func (s *LibraryService) requireUser() (*domain.User, error) {
	if s.session == nil {
		return nil, domainerrors.NoSession("no user is logged in")
	}
	return s.session.User, nil
}

// loadPreferences falls back to the defaults when the repository fails.
func (s *LibraryService) loadPreferences(ctx context.Context, userID string) *domain.Preferences {
	prefs, err := s.repo.LoadPreferences(ctx, userID)
	if err != nil || prefs == nil {
		if err != nil {
			s.logger.Warn("failed to load preferences, using defaults", "user_id", userID, "error", err)
		}
		return domain.NewPreferences(userID)
	}
	prefs.Normalize()
	return prefs
}
