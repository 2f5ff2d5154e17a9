// Package webhook принимает уведомления платёжного шлюза об одобренных платежах.
//
// Тело запроса подписывается HMAC-SHA256 общим секретом, подпись в base64
// передаётся в заголовке X-Api-Signature.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/response"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/services/paymentprocessor"
)

// SignatureHeader заголовок с подписью тела.
const SignatureHeader = "X-Api-Signature"

const maxBodySize = 1 << 20

// Service применяет платёжное событие.
type Service interface {
	Apply(ctx context.Context, ev models.PaymentEvent) (models.PaymentResult, error)
}

// Handler обработчик POST /payments/webhook.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  []byte
}

// New создаёт Handler с секретом проверки подписи.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  []byte(secret),
	}
}

// Sign возвращает подпись body для заголовка X-Api-Signature.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(h.secret, body)), []byte(signature))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if len(h.secret) == 0 || signature == "" || !h.verifySignature(body, signature) {
		log.Warn("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var ev models.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("malformed payment event"))
		return
	}
	log = log.With(sl.ChatID(ev.ChatID), slog.String("reference", ev.Reference))

	res, err := h.service.Apply(r.Context(), ev)
	switch {
	case err == nil:
		log.Info("payment applied from webhook")
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"next_due_at": res.NextDueAt}))
	case errors.Is(err, paymentprocessor.ErrEventIgnored):
		log.Info("ignored webhook event", slog.String("status", ev.Status))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"ignored": true}))
	case errors.Is(err, models.ErrDuplicatePayment):
		log.Info("payment already applied")
		render.JSON(w, r, response.StatusOKWithData(map[string]any{"duplicate": true}))
	case errors.Is(err, models.ErrUserNotFound):
		log.Warn("payment for unknown user")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
	case paymentprocessor.Permanent(err):
		log.Warn("payment event rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
	default:
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process payment"))
	}
}
