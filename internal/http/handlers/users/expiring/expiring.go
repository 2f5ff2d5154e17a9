// Package expiring реализует HTTP-обработчик списка подписчиков,
// чей оплаченный период заканчивается в ближайшие дни.
package expiring

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// Service выборка подписчиков.
type Service interface {
	ListUsersExpiringSoon(ctx context.Context, warningDays int) ([]models.UserDueSoon, error)
}

// Handler обработчик GET /users/expiring?days=N.
type Handler struct {
	log         *slog.Logger
	service     Service
	defaultDays int
}

// New создаёт Handler. defaultDays используется, если days не передан.
func New(log *slog.Logger, service Service, defaultDays int) *Handler {
	return &Handler{log: log, service: service, defaultDays: defaultDays}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.expiring"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	days := h.defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			log.Warn("invalid days parameter", slog.String("days", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("days must be a non-negative integer"))
			return
		}
		days = n
	}

	users, err := h.service.ListUsersExpiringSoon(r.Context(), days)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list users"))
		return
	}

	log.Info("users expiring soon listed", slog.Int("days", days), slog.Int("count", len(users)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"days":  days,
		"users": users,
	}))
}
