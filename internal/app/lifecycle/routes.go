package lifecycle

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/billing/price"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/access"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/expiring"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/payments"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/register"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/stats"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/handlers/users/status"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/jwt"
	lifecycleservice "github.com/magabrotheeeer/subscription-lifecycle/internal/services/lifecycle"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/services/paymentprocessor"
)

// Deps зависимости маршрутов.
type Deps struct {
	Lifecycle     *lifecycleservice.Service
	Payments      *paymentprocessor.Service
	Tokens        middlewarectx.TokenParser
	Limiter       *rate.Limiter
	Health        health.Checker
	WebhookSecret string
	WarningDays   int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", health.New(logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// подпись проверяет сам обработчик
		r.Post("/payments/webhook", webhook.New(logger, d.Payments, d.WebhookSecret).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
			r.Use(middlewarectx.JWTMiddleware(d.Tokens, logger))

			r.Get("/price", price.New(logger, d.Lifecycle).ServeHTTP)
			r.Post("/users", register.New(logger, d.Lifecycle).ServeHTTP)
			r.Get("/users/{chat_id}", profile.New(logger, d.Lifecycle).ServeHTTP)
			r.Get("/users/{chat_id}/access", access.New(logger, d.Lifecycle).ServeHTTP)
			r.Get("/users/{chat_id}/stats", stats.New(logger, d.Lifecycle).ServeHTTP)
			r.Get("/users/{chat_id}/payments", payments.New(logger, d.Lifecycle).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, jwt.RoleAdmin))
				r.Get("/users/expiring", expiring.New(logger, d.Lifecycle, d.WarningDays).ServeHTTP)
				r.Put("/users/{chat_id}/status", status.New(logger, d.Lifecycle).ServeHTTP)
			})
		})
	})
}
