package main

import (
	"context"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/consumers"
	"github.com/Behyna/wa-inbox/internal/database"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/mq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			config.Load,
			zap.NewProduction,
			NewMetrics,
			NewMQConnection,
			NewMQConsumer,

			service.NewConversationService,
			service.NewAnalyticsService,
			service.NewIngestService,
			service.NewStatusService,

			consumers.NewInboundConsumer,
			consumers.NewStatusConsumer,
		),
		database.Module,
		fx.Invoke(runWebhookConsumers),
	).Run()
}

func runWebhookConsumers(cfg *config.Config, inbound consumers.InboundConsumer, status consumers.StatusConsumer,
	logger *zap.Logger, rabbit *mq.RabbitMQ, lc fx.Lifecycle,
) {
	appCtx, cancel := context.WithCancel(context.Background())
	queues := []string{cfg.Webhook.InboundQueue, cfg.Webhook.StatusQueue}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology(queues); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}
			logger.Info("queues declared", zap.Strings("queues", queues))

			go func() {
				if err := inbound.Consume(appCtx); err != nil && appCtx.Err() == nil {
					logger.Error("inbound consumer exited", zap.Error(err))
				}
			}()

			go func() {
				if err := status.Consume(appCtx); err != nil && appCtx.Err() == nil {
					logger.Error("status consumer exited", zap.Error(err))
				}
			}()

			logger.Info("webhook consumers started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping webhook consumers")
			cancel()
			return rabbit.Close()
		},
	})
}

// NewMetrics keeps the engine counters on the default registry; the worker exposes no HTTP endpoint.
func NewMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.DefaultRegisterer)
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQConsumer(rabbitMQ *mq.RabbitMQ) (mq.Consumer, error) {
	return rabbitMQ.CreateConsumer()
}
