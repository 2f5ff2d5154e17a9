// Package lifecycle собирает HTTP-приложение сервиса жизненного цикла подписчиков.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/cache"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/config"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/migrations"
	lifecycleservice "github.com/magabrotheeeer/subscription-lifecycle/internal/services/lifecycle"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/services/paymentprocessor"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/storage/repository"
)

// App HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создаёт приложение: хранилище, миграции, кеш и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt secret key is empty")
	}
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.RunOnPool(db.Pool(), cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		db.Close()
		return nil, err
	}

	opts, err := lifecycleservice.OptionsFromConfig(cfg.Lifecycle)
	if err != nil {
		db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}
	svc := lifecycleservice.New(db, cacheRedis, logger, opts)
	if cfg.WebhookSecret == "" {
		logger.Warn("webhook secret is empty, payment webhook will reject every request")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Lifecycle:     svc,
		Payments:      paymentprocessor.New(svc, logger),
		Tokens:        jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		Health:        func(ctx context.Context) error { return repository.CheckDatabaseReady(ctx, db) },
		WebhookSecret: cfg.WebhookSecret,
		WarningDays:   cfg.WarningDays,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis client", slog.Any("err", err))
	}
	a.db.Close()
}
