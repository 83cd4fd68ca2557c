package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/mocks"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookBody = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "waba-1",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "1001"},
        "contacts": [{"wa_id": "15552223333", "profile": {"name": "Sara"}}],
        "messages": [
          {"id": "wamid.in", "from": "15552223333", "timestamp": "1773478800", "type": "text", "text": {"body": "Hi"}},
          {"id": "wamid.img", "from": "15552223333", "timestamp": "1773478801", "type": "image", "image": {"id": "media-9", "caption": "receipt"}},
          {"id": "wamid.loc", "from": "15552223333", "timestamp": "1773478802", "type": "location"}
        ],
        "statuses": [
          {"id": "wamid.out", "status": "delivered", "timestamp": "1773478803", "recipient_id": "15552223333"},
          {"id": "wamid.bad", "status": "failed", "timestamp": "1773478804", "recipient_id": "15552223333",
           "errors": [{"code": 131026, "title": "Message undeliverable"}]},
          {"id": "wamid.del", "status": "deleted", "timestamp": "1773478805", "recipient_id": "15552223333"}
        ]
      }
    }]
  }]
}`

func webhookConfig(secret string) *config.Config {
	return &config.Config{WhatsApp: whatsapp.Config{
		VerifyToken: "verify-me",
		AppSecret:   secret,
		Numbers:     []whatsapp.Credentials{{BusinessNumber: business, PhoneNumberID: "1001"}},
	}}
}

func TestWebhook_Verify(t *testing.T) {
	webhookService := service.NewWebhookService(nil, webhookConfig(""), nil, zap.NewNop())

	challenge, err := webhookService.Verify("subscribe", "verify-me", "12345")
	assert.NoError(t, err)
	assert.Equal(t, "12345", challenge)

	_, err = webhookService.Verify("subscribe", "wrong", "12345")
	assert.Equal(t, constants.ErrCodeUnauthorized, service.ErrorCode(err))

	_, err = webhookService.Verify("unsubscribe", "verify-me", "12345")
	assert.Error(t, err)
}

func TestWebhook_Handle(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	t.Run("dispatches supported events in order", func(t *testing.T) {
		mockIngest := &mocks.IngestService{}
		mockStatus := &mocks.StatusService{}

		mockIngest.On("Ingest", mock.Anything, mock.MatchedBy(func(c service.IngestMessageCommand) bool {
			return c.ProviderMsgID == "wamid.in" && c.BusinessNumber == business && c.CounterpartNumber == customer &&
				c.Direction == model.DirectionInbound && c.Text == "Hi" && c.CustomerName == "Sara" &&
				c.Timestamp.Equal(time.Unix(1773478800, 0))
		})).Return(&model.Message{ID: 1}, nil).Once()
		mockIngest.On("Ingest", mock.Anything, mock.MatchedBy(func(c service.IngestMessageCommand) bool {
			return c.ProviderMsgID == "wamid.img" && c.Type == model.MessageTypeImage && c.Caption == "receipt" &&
				c.MediaURL == "media:media-9"
		})).Return(&model.Message{ID: 2}, nil).Once()

		mockStatus.On("ApplyStatus", mock.Anything, service.ApplyStatusCommand{
			ProviderMsgID: "wamid.out",
			Status:        model.MessageStatusDelivered,
			Timestamp:     time.Unix(1773478803, 0).UTC(),
		}).Return(service.ApplyStatusResult{Applied: true}, nil).Once()
		mockStatus.On("ApplyStatus", mock.Anything, mock.MatchedBy(func(c service.ApplyStatusCommand) bool {
			return c.ProviderMsgID == "wamid.bad" && c.Status == model.MessageStatusFailed &&
				c.ErrorReason == "131026: Message undeliverable"
		})).Return(service.ApplyStatusResult{Applied: true}, nil).Once()

		dispatcher := service.NewDirectDispatcher(mockIngest, mockStatus)
		webhookService := service.NewWebhookService(dispatcher, webhookConfig(""), nil, logger)

		result, err := webhookService.Handle(ctx, []byte(webhookBody), "")

		require.NoError(t, err)
		assert.Equal(t, service.WebhookResult{Messages: 2, Statuses: 2, Skipped: 2}, result)
		mockIngest.AssertExpectations(t)
		mockStatus.AssertExpectations(t)
	})

	t.Run("rejects bad signature", func(t *testing.T) {
		webhookService := service.NewWebhookService(nil, webhookConfig("app-secret"), nil, logger)

		_, err := webhookService.Handle(ctx, []byte(webhookBody), "sha256=deadbeef")

		assert.Equal(t, constants.ErrCodeUnauthorized, service.ErrorCode(err))
	})

	t.Run("accepts valid signature", func(t *testing.T) {
		body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)
		webhookService := service.NewWebhookService(nil, webhookConfig("app-secret"), nil, logger)

		result, err := webhookService.Handle(ctx, body, whatsapp.Sign("app-secret", body))

		assert.NoError(t, err)
		assert.Equal(t, service.WebhookResult{}, result)
	})

	t.Run("malformed body", func(t *testing.T) {
		webhookService := service.NewWebhookService(nil, webhookConfig(""), nil, logger)

		_, err := webhookService.Handle(ctx, []byte("{"), "")

		assert.Equal(t, constants.ErrCodeInvalidRequestBody, service.ErrorCode(err))
	})

	t.Run("unknown status message is skipped, store outage aborts", func(t *testing.T) {
		mockIngest := &mocks.IngestService{}
		mockStatus := &mocks.StatusService{}

		mockIngest.On("Ingest", mock.Anything, mock.Anything).Return(&model.Message{ID: 1}, nil)
		mockStatus.On("ApplyStatus", mock.Anything, mock.MatchedBy(func(c service.ApplyStatusCommand) bool {
			return c.ProviderMsgID == "wamid.out"
		})).Return(service.ApplyStatusResult{}, service.NewServiceError(constants.ErrCodeNotFound, service.ErrMessageNotFound))
		mockStatus.On("ApplyStatus", mock.Anything, mock.MatchedBy(func(c service.ApplyStatusCommand) bool {
			return c.ProviderMsgID == "wamid.bad"
		})).Return(service.ApplyStatusResult{},
			service.NewServiceError(constants.ErrCodeStoreUnavailable, errors.New("connection reset")))

		dispatcher := service.NewDirectDispatcher(mockIngest, mockStatus)
		webhookService := service.NewWebhookService(dispatcher, webhookConfig(""), nil, logger)

		_, err := webhookService.Handle(ctx, []byte(webhookBody), "")

		assert.Equal(t, constants.ErrCodeStoreUnavailable, service.ErrorCode(err))
		mockStatus.AssertNumberOfCalls(t, "ApplyStatus", 2)
	})

	t.Run("unknown phone number id falls back to display number", func(t *testing.T) {
		body := `{"entry":[{"changes":[{"field":"messages","value":{
			"metadata":{"display_phone_number":"15559990000","phone_number_id":"unknown"},
			"messages":[{"id":"wamid.x","from":"15552223333","timestamp":"1773478800","type":"text","text":{"body":"yo"}}]}}]}]}`

		mockIngest := &mocks.IngestService{}
		mockIngest.On("Ingest", mock.Anything, mock.MatchedBy(func(c service.IngestMessageCommand) bool {
			return c.BusinessNumber == "+15559990000"
		})).Return(&model.Message{ID: 1}, nil)

		dispatcher := service.NewDirectDispatcher(mockIngest, &mocks.StatusService{})
		webhookService := service.NewWebhookService(dispatcher, webhookConfig(""), nil, logger)

		result, err := webhookService.Handle(ctx, []byte(body), "")

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Messages)
		mockIngest.AssertExpectations(t)
	})
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, "+15552223333", service.NormalizeNumber("15552223333"))
	assert.Equal(t, "+15552223333", service.NormalizeNumber(" +15552223333 "))
	assert.Equal(t, "", service.NormalizeNumber(""))
}
