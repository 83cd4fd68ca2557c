package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/internal/api"
	"github.com/Behyna/wa-inbox/internal/api/v1"
	"github.com/Behyna/wa-inbox/internal/api/validator"
	"github.com/Behyna/wa-inbox/internal/config"
	middleware "github.com/Behyna/wa-inbox/internal/error"
	"github.com/Behyna/wa-inbox/internal/metrics"
	"github.com/Behyna/wa-inbox/internal/mocks"
	"github.com/Behyna/wa-inbox/internal/repository/memory"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	business = "+15550001111"
	customer = "+15552223333"
	apiKey   = "erp-test-key-123"
)

func newTestApp(t *testing.T) (*fiber.App, *mocks.ProviderService) {
	t.Helper()

	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	cfg := &config.Config{
		API:       config.API{ServiceName: "wa-inbox", Version: "test"},
		Analytics: config.Analytics{ResponseWindow: 24 * time.Hour, DashboardCacheTTL: time.Millisecond},
		WhatsApp:  whatsapp.Config{VerifyToken: "verify-me"},
		ERP:       config.ERP{APIKeys: []string{apiKey}, DefaultBusinessNumber: business},
	}

	store := memory.NewStore()
	messageRepo := memory.NewMessageRepository(store)
	conversationRepo := memory.NewConversationRepository(store)

	conversations := service.NewConversationService(conversationRepo, logger)
	analytics := service.NewAnalyticsService(memory.NewMetricsRepository(store), conversationRepo, cfg, m, logger)
	ingest := service.NewIngestService(messageRepo, memory.NewTxManager(store), conversations, analytics, m, logger)
	status := service.NewStatusService(messageRepo, m, logger)
	provider := &mocks.ProviderService{}

	v1Handler := v1.NewHandler(v1.Params{
		Logger:        logger,
		Config:        cfg,
		Validator:     validator.NewXValidator(m),
		Ingest:        ingest,
		Status:        status,
		Messages:      service.NewMessageService(messageRepo, logger),
		Conversations: conversations,
		Analytics:     analytics,
		Send:          service.NewSendService(provider, ingest, logger),
		Webhook:       service.NewWebhookService(service.NewDirectDispatcher(ingest, status), cfg, m, logger),
	})

	handler := api.NewHandler(logger, metrics.NewDatabaseMetricsCollector(m, logger, nil),
		metrics.NewSystemCollector(m, logger), cfg)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	app.Use(metrics.HTTPMetricsMiddleware(m, logger))
	api.SetupRoutes(app, handler, v1Handler, registry)

	return app, provider
}

func do(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func ingestBody(providerID, direction, text string) string {
	return `{"provider_message_id":"` + providerID + `","business_number":"` + business +
		`","counterpart_number":"` + customer + `","direction":"` + direction + `","type":"text","text":"` + text +
		`","timestamp":"2026-03-14T09:00:00Z"}`
}

func TestSystemRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pong", string(body))

	status, body = do(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	var health api.HealthResponse
	decode(t, body, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "memory", health.Driver)

	status, body = do(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "wainbox_http_requests_total")
}

func TestMessageRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/v1/messages", ingestBody("wamid.in", "inbound", "Hi"), nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	var created v1.MessageResponse
	decode(t, body, &created)
	assert.Equal(t, "delivered", created.Status)

	t.Run("duplicate returns the stored message", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/api/v1/messages", ingestBody("wamid.in", "inbound", "Hi"), nil)
		require.Equal(t, http.StatusCreated, status)
		var again v1.MessageResponse
		decode(t, body, &again)
		assert.Equal(t, created.ID, again.ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/api/v1/messages", `{"direction":`, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		var resp middleware.Response
		decode(t, body, &resp)
		assert.Equal(t, "INVALID_REQUEST_BODY", resp.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		status, body := do(t, app, http.MethodPost, "/api/v1/messages", `{"direction":"sideways"}`, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		var resp middleware.Response
		decode(t, body, &resp)
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.Contains(t, resp.Error, "BusinessNumber")
	})

	t.Run("outbound then status", func(t *testing.T) {
		status, _ := do(t, app, http.MethodPost, "/api/v1/messages", ingestBody("wamid.out", "outbound", "Hello"), nil)
		require.Equal(t, http.StatusCreated, status)

		status, body := do(t, app, http.MethodPost, "/api/v1/messages/status",
			`{"provider_message_id":"wamid.out","status":"read","timestamp":"2026-03-14T09:05:00Z"}`, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var applied v1.ApplyStatusResponse
		decode(t, body, &applied)
		assert.True(t, applied.Applied)
		assert.Equal(t, "read", applied.Message.Status)

		status, _ = do(t, app, http.MethodPost, "/api/v1/messages/status",
			`{"provider_message_id":"wamid.none","status":"read"}`, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("thread", func(t *testing.T) {
		target := "/api/v1/messages?business_number=" + url.QueryEscape(business) +
			"&counterpart_number=" + url.QueryEscape(customer)
		status, body := do(t, app, http.MethodGet, target, "", nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var thread v1.GetMessagesResponse
		decode(t, body, &thread)
		assert.Equal(t, 2, thread.Total)
	})

	t.Run("by id", func(t *testing.T) {
		status, _ := do(t, app, http.MethodGet, "/api/v1/messages/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)

		status, _ = do(t, app, http.MethodGet, "/api/v1/messages/999", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("attach provider id", func(t *testing.T) {
		queued := `{"business_number":"` + business + `","counterpart_number":"` + customer +
			`","direction":"outbound","type":"text","text":"later"}`
		status, body := do(t, app, http.MethodPost, "/api/v1/messages", queued, nil)
		require.Equal(t, http.StatusCreated, status)
		var msg v1.MessageResponse
		decode(t, body, &msg)
		assert.Equal(t, "queued", msg.Status)

		target := "/api/v1/messages/" + itoa(msg.ID) + "/provider-id"
		status, body = do(t, app, http.MethodPut, target, `{"provider_message_id":"wamid.late"}`, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		decode(t, body, &msg)
		assert.Equal(t, "queued", msg.Status)
		assert.Equal(t, "wamid.late", msg.ProviderMessageID)

		status, _ = do(t, app, http.MethodPut, target, `{"provider_message_id":"wamid.other"}`, nil)
		assert.Equal(t, http.StatusConflict, status)
	})
}

func TestConversationAndAnalyticsRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := do(t, app, http.MethodPost, "/api/v1/messages", ingestBody("wamid.in", "inbound", "Hi"), nil)
	require.Equal(t, http.StatusCreated, status)

	list := "/api/v1/conversations?business_number=" + url.QueryEscape(business)
	status, body := do(t, app, http.MethodGet, list, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var conversations v1.GetConversationsResponse
	decode(t, body, &conversations)
	require.Equal(t, 1, conversations.Total)
	conv := conversations.Conversations[0]
	assert.Equal(t, 1, conv.UnreadCount)

	base := "/api/v1/conversations/" + itoa(conv.ID)

	status, body = do(t, app, http.MethodPost, base+"/read", "", nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, body, &conv)
	assert.Equal(t, 0, conv.UnreadCount)

	status, _ = do(t, app, http.MethodPost, base+"/reopen", "", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = do(t, app, http.MethodPost, base+"/archive", "", nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, body, &conv)
	assert.Equal(t, "archived", conv.Status)

	status, body = do(t, app, http.MethodGet, list+"&status=archived", "", nil)
	require.Equal(t, http.StatusOK, status)
	decode(t, body, &conversations)
	assert.Equal(t, 1, conversations.Total)

	status, _ = do(t, app, http.MethodGet, list+"&status=spam", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, base+"/close", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodGet, "/api/v1/conversations/404", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	analytics := "/api/v1/analytics?business_number=" + url.QueryEscape(business) +
		"&start_date=2026-03-14&end_date=2026-03-14"
	status, body = do(t, app, http.MethodGet, analytics, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var report v1.GetAnalyticsResponse
	decode(t, body, &report)
	require.Len(t, report.Days, 1)
	assert.Equal(t, int64(1), report.Days[0].InboundMessages)
	assert.Equal(t, int64(1), report.Days[0].MessagesByHour[9])

	status, _ = do(t, app, http.MethodGet, "/api/v1/analytics?business_number=x&start_date=2026-03-14", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodGet, "/api/v1/analytics/dashboard?business_number="+url.QueryEscape(business), "", nil)
	require.Equal(t, http.StatusOK, status)
	var stats service.DashboardStats
	decode(t, body, &stats)
	assert.Equal(t, business, stats.BusinessNumber)
}

func TestSendRoute(t *testing.T) {
	request := `{"business_number":"` + business + `","counterpart_number":"` + customer + `","text":"Shipped"}`
	sendRequest := whatsapp.SendRequest{To: customer, Type: "text", Text: "Shipped"}

	t.Run("sent", func(t *testing.T) {
		app, provider := newTestApp(t)
		provider.On("SendWithRetry", mock.Anything, business, sendRequest).
			Return(whatsapp.Response{MessageID: "wamid.sent"}, nil)

		status, body := do(t, app, http.MethodPost, "/api/v1/messages/send", request, nil)
		require.Equal(t, http.StatusCreated, status, string(body))
		var msg v1.MessageResponse
		decode(t, body, &msg)
		assert.Equal(t, "sent", msg.Status)
		assert.Equal(t, "wamid.sent", msg.ProviderMessageID)
	})

	t.Run("provider failure", func(t *testing.T) {
		app, provider := newTestApp(t)
		provider.On("SendWithRetry", mock.Anything, business, sendRequest).
			Return(whatsapp.Response{}, errors.New("rate limited"))

		status, body := do(t, app, http.MethodPost, "/api/v1/messages/send", request, nil)
		assert.Equal(t, http.StatusBadGateway, status)
		var resp middleware.Response
		decode(t, body, &resp)
		assert.Equal(t, "PROVIDER_ERROR", resp.Code)
	})

	t.Run("invalid phone", func(t *testing.T) {
		app, provider := newTestApp(t)
		bad := `{"business_number":"` + business + `","counterpart_number":"not-a-number","text":"x"}`

		status, _ := do(t, app, http.MethodPost, "/api/v1/messages/send", bad, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		provider.AssertNotCalled(t, "SendWithRetry", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWebhookRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12345", string(body))

	status, _ = do(t, app, http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", "", nil)
	assert.Equal(t, http.StatusForbidden, status)

	delivery := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{
		"metadata":{"display_phone_number":"15550001111","phone_number_id":"1001"},
		"messages":[{"id":"wamid.hook","from":"15552223333","timestamp":"1773478800","type":"text","text":{"body":"Hi"}}]}}]}]}`

	status, body = do(t, app, http.MethodPost, "/webhooks/whatsapp", delivery, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var resp v1.WebhookResponse
	decode(t, body, &resp)
	assert.True(t, resp.Received)
	assert.Equal(t, 1, resp.Result.Messages)

	status, _ = do(t, app, http.MethodPost, "/webhooks/whatsapp", "not json", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestERPRoutes(t *testing.T) {
	sendRequest := whatsapp.SendRequest{To: customer, Type: "text", Text: "Invoice ready"}

	t.Run("info", func(t *testing.T) {
		app, _ := newTestApp(t)
		status, body := do(t, app, http.MethodGet, "/api/erp/send-message", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(body), "ERP API is operational")
	})

	t.Run("rejects bad key", func(t *testing.T) {
		app, provider := newTestApp(t)
		status, body := do(t, app, http.MethodPost, "/api/erp/send-message",
			`{"apiKey":"nope","to":"+15552223333","message":"Invoice ready"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		var resp v1.ERPMessageResponse
		decode(t, body, &resp)
		assert.False(t, resp.Success)
		provider.AssertNotCalled(t, "SendWithRetry", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects bad phone", func(t *testing.T) {
		app, _ := newTestApp(t)
		status, body := do(t, app, http.MethodPost, "/api/erp/send-message",
			`{"to":"abc","message":"Invoice ready"}`, map[string]string{"X-API-Key": apiKey})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(body), "invalid phone number format")
	})

	t.Run("sends and reports status", func(t *testing.T) {
		app, provider := newTestApp(t)
		provider.On("SendWithRetry", mock.Anything, business, sendRequest).
			Return(whatsapp.Response{MessageID: "wamid.erp"}, nil)

		status, body := do(t, app, http.MethodPost, "/api/erp/send-message",
			`{"apiKey":"`+apiKey+`","to":"15552223333","message":"Invoice ready","priority":"high"}`, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		var sent v1.ERPMessageResponse
		decode(t, body, &sent)
		assert.True(t, sent.Success)
		assert.Equal(t, "sent", sent.Status)

		status, body = do(t, app, http.MethodGet, "/api/erp/message-status/"+sent.MessageID, "", nil)
		require.Equal(t, http.StatusOK, status)
		var report v1.ERPMessageStatusResponse
		decode(t, body, &report)
		assert.Equal(t, "sent", report.Status)

		status, body = do(t, app, http.MethodGet, "/api/erp/message-status?messageId=wamid.erp", "", nil)
		require.Equal(t, http.StatusOK, status)
		decode(t, body, &report)
		assert.Equal(t, "wamid.erp", report.MessageID)

		status, _ = do(t, app, http.MethodGet, "/api/erp/message-status?messageId=wamid.none", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("test checks", func(t *testing.T) {
		app, _ := newTestApp(t)

		status, body := do(t, app, http.MethodPost, "/api/erp/test",
			`{"apiKey":"`+apiKey+`","to":"+15552223333"}`, nil)
		assert.Equal(t, http.StatusOK, status, string(body))
		var report v1.ERPTestResponse
		decode(t, body, &report)
		assert.True(t, report.Success)
		assert.Len(t, report.Tests, 3)

		status, body = do(t, app, http.MethodPost, "/api/erp/test", `{"to":"+15552223333","testType":"message"}`, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		decode(t, body, &report)
		assert.False(t, report.Tests["apiKeyValidation"].Passed)
		assert.False(t, report.Tests["messageDelivery"].Passed)
	})
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
