package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/promptcard/internal/account"
	"github.com/dukerupert/promptcard/internal/auth"
	"github.com/dukerupert/promptcard/internal/database"
	"github.com/dukerupert/promptcard/internal/model"
	"github.com/dukerupert/promptcard/internal/question"
	"github.com/dukerupert/promptcard/internal/session"
	"github.com/dukerupert/promptcard/internal/store"
	"github.com/dukerupert/promptcard/web"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	users     *store.UserStore
	questions *store.QuestionStore
	manager   *session.Manager
	codec     *session.CookieCodec
	authH     *AuthHandler
	questionH *QuestionHandler
	pageH     *PageHandler
}

func setupHandlers(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := NewRenderer(web.FS, logger)
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	users := store.NewUserStore(db)
	questions := store.NewQuestionStore(db)
	manager := session.NewManager(store.NewSessionStore(db))
	codec := session.NewCookieCodec("test-secret")

	accounts, err := account.NewService(users, manager, auth.NewPasswordHasher(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	svc := question.NewService(questions)

	return &testEnv{
		users:     users,
		questions: questions,
		manager:   manager,
		codec:     codec,
		authH:     NewAuthHandler(accounts, codec, renderer, logger),
		questionH: NewQuestionHandler(svc, renderer, logger),
		pageH:     NewPageHandler(svc, renderer, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// asUser attaches the identity LoadSession would set for u.
func asUser(r *http.Request, u *model.User) *http.Request {
	ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: u.ID, Username: u.Username})
	return r.WithContext(ctx)
}

func sessionCookieFrom(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

var errStoreDown = errors.New("store unavailable")

// brokenQuestionStore fails every call.
type brokenQuestionStore struct{}

func (brokenQuestionStore) Create(context.Context, string, string) (*model.Question, error) {
	return nil, errStoreDown
}
func (brokenQuestionStore) GetOwned(context.Context, string, string) (*model.Question, error) {
	return nil, errStoreDown
}
func (brokenQuestionStore) ListByOwner(context.Context, string, model.Order) ([]model.Question, error) {
	return nil, errStoreDown
}
func (brokenQuestionStore) Update(context.Context, string, string, string) (*model.Question, error) {
	return nil, errStoreDown
}
func (brokenQuestionStore) Delete(context.Context, string, string) error { return errStoreDown }
func (brokenQuestionStore) SeedDefaults(context.Context, string) error  { return errStoreDown }

// setupBrokenHandlers wires the question and page handlers to a store that
// always fails.
func setupBrokenHandlers(t *testing.T) (*QuestionHandler, *PageHandler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := NewRenderer(web.FS, logger)
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	svc := question.NewService(brokenQuestionStore{})
	return NewQuestionHandler(svc, renderer, logger), NewPageHandler(svc, renderer, logger)
}
