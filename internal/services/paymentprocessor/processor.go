// Package paymentprocessor применяет события об одобренных платежах,
// пришедшие из очереди payments.approved или через вебхук платёжного шлюза.
package paymentprocessor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// ErrEventIgnored событие не является одобренным платежом.
var ErrEventIgnored = errors.New("payment event ignored")

// ErrMalformedEvent событие не удалось разобрать или оно не прошло валидацию.
var ErrMalformedEvent = errors.New("malformed payment event")

// Lifecycle применяет платёж к подписчику.
type Lifecycle interface {
	ProcessPayment(ctx context.Context, chatID int64, amount decimal.Decimal, reference string) (models.PaymentResult, error)
}

// Service обработчик платёжных событий.
type Service struct {
	lifecycle Lifecycle
	log       *slog.Logger
	validate  *validator.Validate
}

// New создаёт обработчик.
func New(lifecycle Lifecycle, log *slog.Logger) *Service {
	return &Service{
		lifecycle: lifecycle,
		log:       log,
		validate:  validator.New(),
	}
}

// Apply проверяет событие и применяет платёж. Неодобренные платежи
// возвращают ErrEventIgnored, ошибки бизнес-логики пробрасываются как есть.
func (s *Service) Apply(ctx context.Context, ev models.PaymentEvent) (models.PaymentResult, error) {
	const op = "paymentprocessor.Apply"
	if err := s.validate.Struct(ev); err != nil {
		return models.PaymentResult{}, fmt.Errorf("%s: %w: %w", op, ErrMalformedEvent, err)
	}
	if !strings.EqualFold(ev.Status, models.PaymentStatusApproved) {
		return models.PaymentResult{}, fmt.Errorf("%s: %w: status %q", op, ErrEventIgnored, ev.Status)
	}
	res, err := s.lifecycle.ProcessPayment(ctx, ev.ChatID, ev.Amount, ev.Reference)
	if err != nil {
		return models.PaymentResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Handle обрабатывает сообщение из очереди. Возвращает ошибку только при
// временных сбоях, чтобы сообщение вернулось в очередь. Неразборчивые
// сообщения, дубли и платежи неизвестных подписчиков подтверждаются.
func (s *Service) Handle(ctx context.Context, body []byte) error {
	const op = "paymentprocessor.Handle"
	log := s.log.With(slog.String("op", op))

	var ev models.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Error("failed to unmarshal message body, dropping", sl.Err(err))
		return nil
	}
	log = log.With(sl.ChatID(ev.ChatID), slog.String("reference", ev.Reference))

	res, err := s.Apply(ctx, ev)
	switch {
	case err == nil:
		log.Info("payment applied", slog.Time("next_due_at", res.NextDueAt))
		return nil
	case errors.Is(err, ErrEventIgnored):
		log.Info("ignored payment event", slog.String("status", ev.Status))
		return nil
	case errors.Is(err, models.ErrDuplicatePayment):
		log.Info("payment already applied")
		return nil
	case Permanent(err):
		log.Error("dropping payment event", sl.Err(err))
		return nil
	}
	log.Error("failed to apply payment, will retry", sl.Err(err))
	return fmt.Errorf("%s: %w", op, err)
}

// Permanent сообщает, что повторная обработка события не изменит результат.
func Permanent(err error) bool {
	return errors.Is(err, ErrMalformedEvent) ||
		errors.Is(err, models.ErrInvalidAmount) ||
		errors.Is(err, models.ErrInvalidArgument) ||
		errors.Is(err, models.ErrUserNotFound)
}
