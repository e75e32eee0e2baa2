package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/promptcard/internal/auth"
	"github.com/dukerupert/promptcard/internal/model"
	"github.com/dukerupert/promptcard/internal/question"
)

type PageHandler struct {
	questions *question.Service
	renderer  *Renderer
	logger    *slog.Logger
}

func NewPageHandler(questions *question.Service, renderer *Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{questions: questions, renderer: renderer, logger: logger}
}

// Home renders the landing page. Signed-in users get their questions, seeded
// with the defaults on their first visit.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	var questions []model.Question
	if id, err := auth.Authorize(r.Context()); err == nil {
		questions, err = h.questions.Home(r.Context(), id.UserID)
		if err != nil {
			h.logger.Error("home questions", "user_id", id.UserID, "error", err)
			questions = nil
		}
	}

	h.renderer.Render(w, r, http.StatusOK, "home.html", map[string]any{
		"Questions": questions,
	})
}

func (h *PageHandler) Documentation(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "documentation.html", nil)
}
