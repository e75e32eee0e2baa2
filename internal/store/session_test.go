package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/promptcard/internal/model"
)

func TestSessionCreateAndGet(t *testing.T) {
	us, _, ss := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, us, "alice")

	now := time.Now().UTC().Truncate(time.Second)
	sess := &model.Session{
		Token:     "tok-1",
		UserID:    u.ID,
		Username:  u.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := ss.Create(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := ss.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.UserID != u.ID {
		t.Errorf("user_id = %q, want %q", got.UserID, u.ID)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q, want %q", got.Username, "alice")
	}
	if !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("expires_at = %v, want %v", got.ExpiresAt, sess.ExpiresAt)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	_, _, ss := setupTestDB(t)

	sess, err := ss.GetByToken(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionDelete(t *testing.T) {
	us, _, ss := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, us, "alice")

	now := time.Now().UTC()
	ss.Create(ctx, &model.Session{Token: "tok", UserID: u.ID, Username: u.Username, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	if err := ss.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ss.Delete(ctx, "tok"); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	sess, err := ss.GetByToken(ctx, "tok")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if sess != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	us, _, ss := setupTestDB(t)
	ctx := context.Background()
	u := createUser(t, us, "alice")

	now := time.Now().UTC()
	ss.Create(ctx, &model.Session{Token: "old", UserID: u.ID, Username: u.Username, CreatedAt: now.Add(-25 * time.Hour), ExpiresAt: now.Add(-time.Hour)})
	ss.Create(ctx, &model.Session{Token: "new", UserID: u.ID, Username: u.Username, CreatedAt: now, ExpiresAt: now.Add(time.Hour)})

	n, err := ss.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if sess, _ := ss.GetByToken(ctx, "new"); sess == nil {
		t.Error("expected unexpired session to remain")
	}
}
