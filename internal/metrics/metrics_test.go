package metrics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/ping", "200", time.Millisecond, 4)
		m.RecordMessageIngested("inbound")
		m.RecordDuplicateMessage()
		m.RecordStatusUpdate("read", "applied")
		m.RecordResponseTime(30)
		m.RecordProviderSend("success")
		m.RecordWebhookEvent("message", "dispatched")
		m.RecordValidationError("To", "phone")
		m.RecordDBQuery("ping", "health_check", "success", time.Millisecond)
		m.RecordDBConnectionError()
	})
}

func TestRecording(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	m.RecordMessageIngested("inbound")
	m.RecordMessageIngested("inbound")
	m.RecordStatusUpdate("read", "dropped")
	m.RecordWebhookEvent("status", "not_found")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.MessagesIngested.WithLabelValues("inbound")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StatusUpdates.WithLabelValues("read", "dropped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WebhookEvents.WithLabelValues("status", "not_found")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	app := fiber.New()
	app.Use(metrics.HTTPMetricsMiddleware(m, zap.NewNop()))
	app.Get("/conversations/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/conversations/7", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/conversations/:id", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestDatabaseCollectorWithoutDB(t *testing.T) {
	collector := metrics.NewDatabaseMetricsCollector(metrics.NewMetrics(prometheus.NewRegistry()), zap.NewNop(), nil)

	assert.Equal(t, "memory", collector.Driver())
	assert.NoError(t, collector.HealthCheck())
	collector.Start(time.Second)
	collector.Stop()
}
