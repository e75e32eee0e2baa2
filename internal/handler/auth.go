package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/promptcard/internal/account"
	"github.com/dukerupert/promptcard/internal/model"
	"github.com/dukerupert/promptcard/internal/session"
)

type AuthHandler struct {
	accounts *account.Service
	codec    *session.CookieCodec
	renderer *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(accounts *account.Service, codec *session.CookieCodec, renderer *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		codec:    codec,
		renderer: renderer,
		logger:   logger,
	}
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "signup.html", nil)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	_, sess, err := h.accounts.Register(r.Context(), username, password)
	if err != nil {
		var inputErr *account.InputError
		msg := "Error creating account"
		switch {
		case errors.Is(err, model.ErrDuplicateUsername):
			msg = "Username already exists"
		case errors.As(err, &inputErr):
			msg = inputErr.Message
		default:
			h.logger.Error("signup", "error", err)
		}
		h.renderer.Render(w, r, http.StatusOK, "signup.html", map[string]any{
			"Error":    msg,
			"Username": username,
		})
		return
	}

	h.signIn(w, r, sess)
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "login.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	_, sess, err := h.accounts.Login(r.Context(), username, password)
	if err != nil {
		msg := "Invalid username or password"
		if !errors.Is(err, account.ErrInvalidCredentials) {
			h.logger.Error("login", "error", err)
			msg = "Error logging in"
		}
		h.renderer.Render(w, r, http.StatusOK, "login.html", map[string]any{
			"Error":    msg,
			"Username": username,
		})
		return
	}

	h.signIn(w, r, sess)
}

// Logout ends the session named by the cookie, if any, and always clears it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.codec.Read(r); ok {
		if err := h.accounts.Logout(r.Context(), token); err != nil {
			h.logger.Error("logout", "error", err)
		}
	}
	session.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	if err := h.codec.Write(w, r, sess); err != nil {
		h.logger.Error("write session cookie", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
