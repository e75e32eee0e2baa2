// Package account implements sign-up, login and logout on top of the user and
// session stores.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/promptcard/internal/auth"
	"github.com/dukerupert/promptcard/internal/model"
	"github.com/dukerupert/promptcard/internal/session"
)

const (
	maxUsernameLength = 50
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// InputError is a sign-up form value that failed validation.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type Service struct {
	users     UserStore
	sessions  *session.Manager
	hasher    *auth.PasswordHasher
	dummyHash string
}

func NewService(users UserStore, sessions *session.Manager, hasher *auth.PasswordHasher) (*Service, error) {
	dummy, err := hasher.Hash("promptcard-timing-equaliser")
	if err != nil {
		return nil, err
	}
	return &Service{users: users, sessions: sessions, hasher: hasher, dummyHash: dummy}, nil
}

// Register creates the user and signs them in.
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, nil, err
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("register lookup: %w", err)
	}
	if existing != nil {
		return nil, nil, model.ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, err
	}

	// The unique index still decides when two sign-ups race past the lookup.
	user, err := s.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.sessions.Start(ctx, user.ID, user.Username)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// Login verifies the credentials and starts a session.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("login lookup: %w", err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := s.hasher.Verify(hash, password)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !ok {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Start(ctx, user.ID, user.Username)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.End(ctx, token)
}

func validateCredentials(username, password string) error {
	if username == "" {
		return &InputError{Message: "Username is required"}
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return &InputError{Message: fmt.Sprintf("Username must be at most %d characters", maxUsernameLength)}
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return &InputError{Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)}
	}
	if len(password) > maxPasswordBytes {
		return &InputError{Message: fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes)}
	}
	return nil
}
