package auth

import (
	"context"
	"errors"
	"testing"
)

func TestWithIdentityAndFromContext(t *testing.T) {
	id := Identity{UserID: "u1", Username: "alice", Token: "tok"}

	ctx := WithIdentity(context.Background(), id)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Identity in context")
	}
	if got != id {
		t.Errorf("identity = %+v, want %+v", got, id)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing Identity")
	}
}

func TestAuthorize(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Username: "alice"})
	id, err := Authorize(ctx)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if id.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", id.UserID, "u1")
	}
}

func TestAuthorizeMissing(t *testing.T) {
	if _, err := Authorize(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthorizeEmptyUserID(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Username: "ghost"})
	if _, err := Authorize(ctx); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestUserIDAndUsernameMissing(t *testing.T) {
	if UserID(context.Background()) != "" {
		t.Error("expected empty UserID for missing context")
	}
	if Username(context.Background()) != "" {
		t.Error("expected empty Username for missing context")
	}
}
