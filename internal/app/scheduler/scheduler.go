// Package scheduler собирает приложение, рассылающее уведомления
// о скором окончании оплаченного периода.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/config"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	lifecycleservice "github.com/magabrotheeeer/subscription-lifecycle/internal/services/lifecycle"
	schedulerservice "github.com/magabrotheeeer/subscription-lifecycle/internal/services/scheduler"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	interval         time.Duration
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	// миграции применяет HTTP-приложение
	if err := repository.WaitReady(ctx, db, 10, 3*time.Second); err != nil {
		db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	opts, err := lifecycleservice.OptionsFromConfig(cfg.Lifecycle)
	if err != nil {
		db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}
	lifecycle := lifecycleservice.New(db, nil, logger, opts)

	return &App{
		schedulerService: schedulerservice.New(lifecycle, rabbitmq.NewPublisher(ch), logger, cfg.WarningDays),
		interval:         cfg.Interval,
		db:               db,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx, a.interval)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.logger)
	a.db.Close()
	return nil
}
