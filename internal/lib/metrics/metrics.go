// Package metrics объявляет метрики Prometheus сервиса жизненного цикла подписчиков.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations число успешных регистраций.
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "registrations_total",
		Help:      "Number of registered subscribers.",
	})

	// AccessDecisions решения о доступе по результату и причине.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "access_decisions_total",
		Help:      "Access checks by outcome.",
	}, []string{"result", "kind"})

	// Expirations автоматические переводы в trial_expired и expired.
	Expirations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "expirations_total",
		Help:      "Status writes caused by an elapsed trial or billing period.",
	}, []string{"status"})

	// PaymentsProcessed обработанные платежи по результату.
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "payments_processed_total",
		Help:      "Approved payment events by processing result.",
	}, []string{"result"})

	// NotificationsPublished опубликованные уведомления о скором окончании периода.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "notifications_published_total",
		Help:      "Expiring-soon notifications sent to the broker.",
	}, []string{"result"})
)
