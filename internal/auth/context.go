package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned by Authorize when no identity is attached to the request.
var ErrUnauthenticated = errors.New("authentication required")

type contextKey struct{}

// Identity is the signed-in user bound to a request.
type Identity struct {
	UserID   string
	Username string
	Token    string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Authorize returns the request identity or ErrUnauthenticated.
// Owner-scoped operations call it before touching question storage.
func Authorize(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok || id.UserID == "" {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

func UserID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.UserID
}

func Username(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.Username
}
