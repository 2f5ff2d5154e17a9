// Package paymentprocessor собирает приложение, применяющее одобренные
// платежи из очереди payments.approved.
package paymentprocessor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-lifecycle/internal/cache"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/config"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/lib/sl"
	lifecycleservice "github.com/magabrotheeeer/subscription-lifecycle/internal/services/lifecycle"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/services/paymentprocessor"
	"github.com/magabrotheeeer/subscription-lifecycle/internal/storage/repository"
)

// App приложение обработчика платежей.
type App struct {
	processor *paymentprocessor.Service
	db        *repository.Storage
	cache     *cache.Cache
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

// New подключается к брокеру, хранилищу и кешу.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.conn = conn

	a.ch, err = rabbitmq.SetupChannel(conn, rabbitmq.PaymentQueues())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	a.db, err = repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = repository.WaitReady(ctx, a.db, 10, 3*time.Second); err != nil {
		a.close()
		return nil, err
	}

	// платёж сбрасывает кешированную статистику подписчика
	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	opts, err := lifecycleservice.OptionsFromConfig(cfg.Lifecycle)
	if err != nil {
		a.close()
		return nil, err
	}
	lifecycle := lifecycleservice.New(a.db, a.cache, logger, opts)
	a.processor = paymentprocessor.New(lifecycle, logger)
	return a, nil
}

// Run читает очередь до отмены ctx и дожидается обработки полученных сообщений.
func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueuePaymentsApproved, a.logger, a.processor.Handle)
	if err != nil {
		a.close()
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	a.logger.Info("payment-processor consuming", slog.String("queue", rabbitmq.QueuePaymentsApproved))

	<-ctx.Done()
	a.logger.Info("payment-processor shutting down gracefully")
	<-done
	a.close()
	return nil
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis client", sl.Err(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
