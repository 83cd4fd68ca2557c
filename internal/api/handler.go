package api

import (
	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	logger   *zap.Logger
	database *metrics.DatabaseMetricsCollector
	system   *metrics.SystemCollector
	cfg      *config.Config
}

func NewHandler(logger *zap.Logger, database *metrics.DatabaseMetricsCollector, system *metrics.SystemCollector,
	cfg *config.Config) *Handler {
	return &Handler{logger: logger, database: database, system: system, cfg: cfg}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

type HealthResponse struct {
	Status   string  `json:"status"`
	Service  string  `json:"service"`
	Version  string  `json:"version"`
	Database string  `json:"database"`
	Driver   string  `json:"driver"`
	Uptime   float64 `json:"uptime_seconds"`
}

func (h *Handler) Health(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:   "ok",
		Service:  h.cfg.API.ServiceName,
		Version:  h.cfg.API.Version,
		Database: "ok",
		Driver:   h.database.Driver(),
		Uptime:   h.system.UptimeSeconds(),
	}

	if err := h.database.HealthCheck(); err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		response.Status = "degraded"
		response.Database = "unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
