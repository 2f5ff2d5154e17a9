// Package access реализует HTTP-обработчик проверки доступа подписчика.
//
// Проверка может перевести подписчика в trial_expired или expired,
// если его период закончился.
package access

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/request"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// Service проверка доступа.
type Service interface {
	CheckAccess(ctx context.Context, chatID int64) (models.AccessDecision, error)
}

// Handler обработчик GET /users/{chat_id}/access.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP возвращает решение о доступе. При внутреннем сбое отвечает 500,
// но тело всё равно содержит решение с причиной internal_error.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.access"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	chatID, err := request.ChatID(r)
	if err != nil {
		log.Warn("failed to parse chat id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid chat id"))
		return
	}

	decision, err := h.service.CheckAccess(r.Context(), chatID)
	if err != nil {
		log.Error("failed to check access", sl.ChatID(chatID), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Response{
			Status: response.StatusError,
			Error:  "could not check access",
			Data:   decision,
		})
		return
	}

	log.Debug("access checked", sl.ChatID(chatID), slog.Bool("access", decision.Access))
	render.JSON(w, r, response.StatusOKWithData(decision))
}
