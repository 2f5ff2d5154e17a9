// Package status реализует HTTP-обработчик ручной смены статуса подписчика.
// Доступен только администраторам.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/request"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// Request тело запроса.
type Request struct {
	Status     string `json:"status" validate:"required,oneof=trial trial_expired paid expired"`
	PlanActive bool   `json:"plan_active"`
}

// Service смена статуса.
type Service interface {
	SetStatus(ctx context.Context, chatID int64, status models.Status, planActive bool) error
}

// Handler обработчик PUT /users/{chat_id}/status.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.status"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err = h.service.SetStatus(r.Context(), chatID, models.Status(req.Status), req.PlanActive)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrUserNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case errors.Is(err, models.ErrInvalidStatus):
		log.Warn("status rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	default:
		log.Error("failed to set status", sl.ChatID(chatID), sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set status"))
		return
	}

	log.Info("status set", sl.ChatID(chatID), slog.String("status", req.Status), slog.Bool("plan_active", req.PlanActive))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"chat_id":     chatID,
		"status":      req.Status,
		"plan_active": req.PlanActive,
	}))
}
