// Package session maps opaque tokens to signed-in users for a fixed lifetime.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dukerupert/promptcard/internal/model"
)

// DefaultTTL is the fixed lifetime of a session. Activity does not extend it.
const DefaultTTL = 24 * time.Hour

// Store persists session records. Implementations return a nil session and a
// nil error for unknown tokens.
type Store interface {
	Create(ctx context.Context, sess *model.Session) error
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, ttl: DefaultTTL, now: time.Now}
}

// Start creates a session for the user that expires DefaultTTL from now.
func (m *Manager) Start(ctx context.Context, userID, username string) (*model.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	sess := &model.Session{
		Token:     token,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return sess, nil
}

// Resolve returns the live session for token, or nil when the token is empty,
// unknown or expired. Expired records are removed on sight.
func (m *Manager) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			return nil, fmt.Errorf("drop expired session: %w", err)
		}
		return nil, nil
	}
	return sess, nil
}

// End invalidates token immediately. Ending an unknown token is not an error.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// Cleanup deletes every expired session and returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
