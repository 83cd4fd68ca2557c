package api

import (
	"github.com/Behyna/wa-inbox/internal/api/v1"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, v1Handler *v1.Handler, gatherer prometheus.Gatherer) {
	app.Get("/ping", handler.Pong)
	app.Get("/health", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	webhooks := app.Group("/webhooks")
	webhooks.Get("/whatsapp", v1Handler.VerifyWebhook)
	webhooks.Post("/whatsapp", v1Handler.ReceiveWebhook)

	api := app.Group("/api/v1")

	messages := api.Group("/messages")
	messages.Post("/", v1Handler.IngestMessage)
	messages.Get("/", v1Handler.GetMessages)
	messages.Post("/send", v1Handler.SendMessage)
	messages.Post("/status", v1Handler.ApplyStatus)
	messages.Get("/:id", v1Handler.GetMessage)
	messages.Put("/:id/provider-id", v1Handler.AttachProviderMessageID)

	conversations := api.Group("/conversations")
	conversations.Get("/", v1Handler.GetConversations)
	conversations.Get("/:id", v1Handler.GetConversation)
	conversations.Post("/:id/read", v1Handler.MarkRead)
	conversations.Post("/:id/archive", v1Handler.Archive)
	conversations.Post("/:id/reopen", v1Handler.Reopen)
	conversations.Post("/:id/close", v1Handler.Close)

	analytics := api.Group("/analytics")
	analytics.Get("/", v1Handler.GetAnalytics)
	analytics.Get("/dashboard", v1Handler.GetDashboardStats)

	erp := app.Group("/api/erp")
	erp.Get("/send-message", v1Handler.ERPInfo)
	erp.Post("/send-message", v1Handler.ERPSendMessage)
	erp.Get("/message-status", v1Handler.ERPMessageStatus)
	erp.Get("/message-status/:messageId", v1Handler.ERPMessageStatus)
	erp.Post("/test", v1Handler.ERPTest)
}
