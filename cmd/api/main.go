package main

import (
	"context"
	"time"

	"github.com/Behyna/wa-inbox/internal/api"
	"github.com/Behyna/wa-inbox/internal/api/v1"
	"github.com/Behyna/wa-inbox/internal/api/validator"
	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/database"
	middleware "github.com/Behyna/wa-inbox/internal/error"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/internal/publishers"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/httpclient"
	"github.com/Behyna/wa-inbox/pkg/mq"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
			NewRegistry,
			metrics.NewMetrics,
			metrics.NewSystemCollector,
			metrics.NewDatabaseMetricsCollector,
			NewWhatsAppProvider,
			NewEventDispatcher,

			service.NewConversationService,
			service.NewAnalyticsService,
			service.NewIngestService,
			service.NewStatusService,
			service.NewMessageService,
			service.NewProviderService,
			service.NewSendService,
			service.NewWebhookService,

			validator.NewXValidator,
			api.NewHandler,
			v1.NewHandler,
			NewFiberApp,
		),
		database.Module,
		fx.Invoke(startServer),
	).Run()
}

func NewRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, registry
}

func NewWhatsAppProvider(cfg *config.Config) whatsapp.Provider {
	client := httpclient.NewHTTPClient(cfg.WhatsApp.Timeout)
	return whatsapp.NewProvider(cfg.WhatsApp, client)
}

// NewEventDispatcher applies webhook events inline, or publishes them for
// worker-webhook when webhook.async is set.
func NewEventDispatcher(cfg *config.Config, ingest service.IngestService, status service.StatusService,
	logger *zap.Logger, lc fx.Lifecycle) (service.EventDispatcher, error) {
	if !cfg.Webhook.Async {
		return service.NewDirectDispatcher(ingest, status), nil
	}

	rabbit, err := mq.NewConnection(cfg.RabbitMQ, logger)
	if err != nil {
		return nil, err
	}

	if err := rabbit.DeclareTopology([]string{cfg.Webhook.InboundQueue, cfg.Webhook.StatusQueue}); err != nil {
		_ = rabbit.Close()
		return nil, err
	}

	publisher, err := rabbit.CreatePublisher()
	if err != nil {
		_ = rabbit.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rabbit.Close()
		},
	})

	logger.Info("Webhook events are published to RabbitMQ",
		zap.String("inboundQueue", cfg.Webhook.InboundQueue),
		zap.String("statusQueue", cfg.Webhook.StatusQueue))

	return publishers.NewEventPublisher(publisher, cfg, logger), nil
}

func NewFiberApp(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.API.ServiceName,
		ErrorHandler: middleware.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMetricsMiddleware(m, logger))
	return app
}

func startServer(app *fiber.App, handler *api.Handler, v1Handler *v1.Handler, gatherer prometheus.Gatherer,
	system *metrics.SystemCollector, dbCollector *metrics.DatabaseMetricsCollector,
	cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler, v1Handler, gatherer)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			system.Start(15*time.Second, cfg.API.Version)
			dbCollector.Start(15 * time.Second)

			go func() {
				if err := app.Listen(":" + cfg.API.Port); err != nil {
					logger.Error("HTTP server stopped", zap.Error(err))
				}
			}()

			logger.Info("HTTP server started", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			system.Stop()
			dbCollector.Stop()
			return app.ShutdownWithContext(ctx)
		},
	})
}
