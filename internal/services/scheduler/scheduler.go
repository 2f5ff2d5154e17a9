// Package scheduler периодически находит подписчиков, чей оплаченный период
// скоро закончится, и публикует для них уведомления.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/models"
)

// Lifecycle источник подписчиков с истекающим сроком оплаты.
type Lifecycle interface {
	ListUsersExpiringSoon(ctx context.Context, warningDays int) ([]models.UserDueSoon, error)
	MonthlyPrice() decimal.Decimal
}

// Publisher отправляет сообщения брокеру.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service планировщик уведомлений.
type Service struct {
	lifecycle   Lifecycle
	publisher   Publisher
	log         *slog.Logger
	warningDays int
	now         func() time.Time
}

// New создаёт планировщик, предупреждающий за warningDays дней до срока оплаты.
func New(lifecycle Lifecycle, publisher Publisher, log *slog.Logger, warningDays int) *Service {
	return &Service{
		lifecycle:   lifecycle,
		publisher:   publisher,
		log:         log,
		warningDays: warningDays,
		now:         time.Now,
	}
}

// Run выполняет проход сразу и затем каждые interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce публикует уведомления для всех найденных подписчиков и возвращает
// число успешно опубликованных. Ошибки публикации не прерывают проход.
func (s *Service) RunOnce(ctx context.Context) int {
	const op = "scheduler.RunOnce"
	log := s.log.With(slog.String("op", op), slog.Int("warning_days", s.warningDays))

	log.Info("looking for users whose paid period ends soon")
	users, err := s.lifecycle.ListUsersExpiringSoon(ctx, s.warningDays)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		return 0
	}
	if len(users) == 0 {
		log.Info("no users due soon")
		return 0
	}

	now := s.now()
	price := s.lifecycle.MonthlyPrice()
	published := 0
	for _, u := range users {
		msg := models.ExpiringNotification{
			ChatID:        u.ChatID,
			Name:          u.Name,
			Email:         u.Email,
			NextDueAt:     u.NextDueAt,
			DaysRemaining: max(0, int(u.NextDueAt.Sub(now)/(24*time.Hour))),
			MonthlyPrice:  price,
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingKeyExpiring, msg); err != nil {
			metrics.NotificationsPublished.WithLabelValues("error").Inc()
			log.Error("failed to publish notification", sl.ChatID(u.ChatID), sl.Err(err))
			continue
		}
		metrics.NotificationsPublished.WithLabelValues("ok").Inc()
		published++
	}
	log.Info("notifications published", slog.Int("found", len(users)), slog.Int("published", published))
	return published
}
