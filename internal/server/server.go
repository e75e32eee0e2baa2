package server

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/promptcard/internal/account"
	"github.com/dukerupert/promptcard/internal/auth"
	"github.com/dukerupert/promptcard/internal/handler"
	"github.com/dukerupert/promptcard/internal/middleware"
	"github.com/dukerupert/promptcard/internal/question"
	"github.com/dukerupert/promptcard/internal/session"
)

// Stores bundles the persistence backends the server is built on. The SQLite
// and MongoDB packages both satisfy it.
type Stores struct {
	Users     account.UserStore
	Questions question.Store
	Sessions  session.Store
}

type Config struct {
	SessionSecret string
	BcryptCost    int
	// Assets holds templates/ and static/.
	Assets fs.FS
	// LoginRateLimit caps POST /login and POST /signup per client IP per minute.
	LoginRateLimit int
}

type Server struct {
	authH          *handler.AuthHandler
	questionH      *handler.QuestionHandler
	pageH          *handler.PageHandler
	sessionManager *session.Manager
	cookieCodec    *session.CookieCodec
	rateLimiter    *middleware.RateLimiter
	assets         fs.FS
	logger         *slog.Logger
}

func New(stores Stores, cfg Config, logger *slog.Logger) (*Server, error) {
	renderer, err := handler.NewRenderer(cfg.Assets, logger.With("component", "render"))
	if err != nil {
		return nil, err
	}

	sessionManager := session.NewManager(stores.Sessions)
	cookieCodec := session.NewCookieCodec(cfg.SessionSecret)

	accounts, err := account.NewService(stores.Users, sessionManager, auth.NewPasswordHasher(cfg.BcryptCost))
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	questions := question.NewService(stores.Questions)

	limit := cfg.LoginRateLimit
	if limit <= 0 {
		limit = 10
	}

	static, err := fs.Sub(cfg.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	return &Server{
		authH:          handler.NewAuthHandler(accounts, cookieCodec, renderer, logger.With("component", "auth")),
		questionH:      handler.NewQuestionHandler(questions, renderer, logger.With("component", "questions")),
		pageH:          handler.NewPageHandler(questions, renderer, logger.With("component", "pages")),
		sessionManager: sessionManager,
		cookieCodec:    cookieCodec,
		rateLimiter:    middleware.NewRateLimiter(limit, time.Minute),
		assets:         static,
		logger:         logger,
	}, nil
}

// SessionManager returns the session manager for cleanup tasks.
func (s *Server) SessionManager() *session.Manager {
	return s.sessionManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /{$}", s.pageH.Home)
	outerMux.HandleFunc("GET /signup", s.authH.SignupPage)
	outerMux.HandleFunc("POST /signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /logout", s.authH.Logout)
	outerMux.HandleFunc("POST /logout", s.authH.Logout)
	outerMux.HandleFunc("GET /documentation", s.pageH.Documentation)
	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.assets)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireAuth(protectedMux))

	var h http.Handler = outerMux
	h = middleware.LoadSession(s.sessionManager, s.cookieCodec, s.logger.With("component", "session"))(h)
	// Method override runs before routing so _method=PUT reaches the PUT pattern.
	h = middleware.MethodOverride(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /questions", s.questionH.ListPage)
	mux.HandleFunc("POST /questions", s.questionH.Create)
	mux.HandleFunc("PUT /questions/{id}", s.questionH.Update)
	mux.HandleFunc("DELETE /questions/{id}", s.questionH.Delete)
	mux.HandleFunc("GET /api/questions/random", s.questionH.Random)
}
