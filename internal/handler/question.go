package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/promptcard/internal/auth"
	"github.com/dukerupert/promptcard/internal/middleware"
	"github.com/dukerupert/promptcard/internal/model"
	"github.com/dukerupert/promptcard/internal/question"
)

// Flash codes carried on /questions?error= after a failed form write.
const (
	flashInvalid     = "invalid"
	flashUnavailable = "unavailable"
)

var flashMessages = map[string]string{
	flashInvalid:     "Questions must be between 5 and 500 characters.",
	flashUnavailable: "Something went wrong. Please try again.",
}

type QuestionHandler struct {
	questions *question.Service
	renderer  *Renderer
	logger    *slog.Logger
}

func NewQuestionHandler(questions *question.Service, renderer *Renderer, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, renderer: renderer, logger: logger}
}

type questionRequest struct {
	Text string `json:"text"`
}

// ListPage renders the owner's questions, newest first. A store failure
// renders an empty list.
func (h *QuestionHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	questions, err := h.questions.List(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("list questions", "user_id", id.UserID, "error", err)
		questions = nil
	}

	h.renderer.Render(w, r, http.StatusOK, "questions.html", map[string]any{
		"Questions": questions,
		"Error":     flashMessages[r.URL.Query().Get("error")],
	})
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	text, err := readText(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body", flashInvalid)
		return
	}

	q, err := h.questions.Create(r.Context(), id.UserID, text)
	if err != nil {
		h.writeFailure(w, r, "create question", err)
		return
	}

	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusCreated, q)
		return
	}
	http.Redirect(w, r, "/questions", http.StatusSeeOther)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	text, err := readText(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body", flashInvalid)
		return
	}

	q, err := h.questions.Update(r.Context(), id.UserID, r.PathValue("id"), text)
	if errors.Is(err, model.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		h.writeFailure(w, r, "update question", err)
		return
	}

	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, q)
		return
	}
	http.Redirect(w, r, "/questions", http.StatusSeeOther)
}

// Delete removes the question when it belongs to the caller. Unknown and
// foreign ids succeed without effect.
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	if err := h.questions.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		h.writeFailure(w, r, "delete question", err)
		return
	}

	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/questions", http.StatusSeeOther)
}

// Random returns one of the caller's questions, or the filler text when the
// caller has none.
func (h *QuestionHandler) Random(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	q, err := h.questions.Random(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("random question", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching question")
		return
	}

	if q.ID == "" {
		writeJSON(w, http.StatusOK, map[string]string{"text": q.Text})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuestionHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, err := auth.Authorize(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	return id, true
}

func (h *QuestionHandler) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		h.fail(w, r, http.StatusBadRequest, ve.Error(), flashInvalid)
		return
	}
	h.logger.Error(op, "error", err)
	h.fail(w, r, http.StatusInternalServerError, "StoreUnavailable", flashUnavailable)
}

// fail answers JSON clients with status and msg, and redirects browsers back
// to the list with a flash code.
func (h *QuestionHandler) fail(w http.ResponseWriter, r *http.Request, status int, msg, flash string) {
	if middleware.WantsJSON(r) {
		writeError(w, status, msg)
		return
	}
	http.Redirect(w, r, "/questions?error="+url.QueryEscape(flash), http.StatusSeeOther)
}

// readText accepts either a JSON body or a url-encoded form.
func readText(r *http.Request) (string, error) {
	if isJSONBody(r) {
		var req questionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return req.Text, nil
	}
	return r.FormValue("text"), nil
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
