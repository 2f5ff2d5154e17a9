// Package price реализует HTTP-обработчик текущей месячной цены подписки.
package price

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/response"
)

// Service источник цены.
type Service interface {
	MonthlyPrice() decimal.Decimal
}

// Handler обработчик GET /price.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"monthly_price": h.service.MonthlyPrice().StringFixed(2),
	}))
}
