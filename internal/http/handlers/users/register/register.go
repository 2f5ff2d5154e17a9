// Package register реализует HTTP-обработчик регистрации подписчика.
//
// Новый подписчик получает пробный период. Повторная регистрация того же
// chat_id отклоняется с 409 Conflict.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// Request тело запроса на регистрацию.
type Request struct {
	ChatID int64  `json:"chat_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=255"`
	Email  string `json:"email" validate:"required,email,max=255"`
	Phone  string `json:"phone" validate:"required,max=32"`
}

// Service регистрация подписчика.
type Service interface {
	Register(ctx context.Context, chatID int64, name, email, phone string) (models.RegisterResult, error)
}

// Handler обработчик POST /users.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис жизненного цикла
	validate *validator.Validate // Валидатор тела запроса
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
	const op = "handlers.users.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	res, err := h.service.Register(r.Context(), req.ChatID, req.Name, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyRegistered) {
			log.Info("user already registered", sl.ChatID(req.ChatID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("user already registered"))
			return
		}
		log.Error("failed to register user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register user"))
		return
	}

	log.Info("user registered", sl.ChatID(req.ChatID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"trial_ends_at": res.TrialEndsAt.Format(time.RFC3339),
	}))
}
