package consumers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/consumers"
	"github.com/Behyna/wa-inbox/internal/mocks"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/publishers"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/Behyna/wa-inbox/pkg/events"
	pkgmocks "github.com/Behyna/wa-inbox/pkg/mocks"
	"github.com/Behyna/wa-inbox/pkg/mq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConsumer feeds queued deliveries to the handler and records what it returned.
type fakeConsumer struct {
	queue      string
	prefetch   int
	deliveries []mq.Delivery
	results    []error
}

func (f *fakeConsumer) Consume(ctx context.Context, prefetch int, queue string, handler mq.Handle) error {
	f.queue, f.prefetch = queue, prefetch
	for _, d := range f.deliveries {
		f.results = append(f.results, handler(ctx, d))
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Webhook:  config.Webhook{InboundQueue: "wa.inbound", StatusQueue: "wa.status"},
		RabbitMQ: mq.Config{Prefetch: 5},
	}
}

// published captures the deliveries an EventPublisher would put on each queue.
func published(t *testing.T, dispatch func(p *publishers.EventPublisher) error) mq.Delivery {
	t.Helper()

	var captured mq.Message
	mockPublisher := &pkgmocks.Publisher{}
	mockPublisher.On("Publish", mock.Anything, "", mock.AnythingOfType("string"), mock.AnythingOfType("mq.Message")).
		Run(func(args mock.Arguments) { captured = args.Get(3).(mq.Message) }).
		Return(nil)

	require.NoError(t, dispatch(publishers.NewEventPublisher(mockPublisher, testConfig(), zap.NewNop())))
	mockPublisher.AssertExpectations(t)

	return mq.Delivery{Body: captured.Body, Type: captured.Type, MessageID: captured.MessageID}
}

func TestInboundConsumer(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	event := events.InboundMessageV1{
		ProviderMessageID: "wamid.in",
		BusinessNumber:    "+15550001111",
		From:              "+15552223333",
		CustomerName:      "Sara",
		Type:              "text",
		Text:              "Hi",
		Timestamp:         at,
	}

	delivery := published(t, func(p *publishers.EventPublisher) error {
		return p.DispatchInbound(ctx, event, "corr-1")
	})
	assert.Equal(t, events.TypeInboundMessageV1, delivery.Type)

	t.Run("applies event", func(t *testing.T) {
		mockIngest := &mocks.IngestService{}
		mockIngest.On("Ingest", mock.Anything, mock.MatchedBy(func(cmd service.IngestMessageCommand) bool {
			return cmd.ProviderMsgID == "wamid.in" && cmd.CounterpartNumber == "+15552223333" &&
				cmd.Direction == model.DirectionInbound && cmd.CustomerName == "Sara" && cmd.Timestamp.Equal(at)
		})).Return(&model.Message{ID: 1}, nil)

		fake := &fakeConsumer{deliveries: []mq.Delivery{delivery}}
		require.NoError(t, consumers.NewInboundConsumer(mockIngest, fake, testConfig(), zap.NewNop()).Consume(ctx))

		assert.Equal(t, "wa.inbound", fake.queue)
		assert.Equal(t, 5, fake.prefetch)
		assert.Equal(t, []error{nil}, fake.results)
		mockIngest.AssertExpectations(t)
	})

	t.Run("store outage requeues", func(t *testing.T) {
		mockIngest := &mocks.IngestService{}
		mockIngest.On("Ingest", mock.Anything, mock.Anything).
			Return((*model.Message)(nil), service.NewServiceError(constants.ErrCodeStoreUnavailable, errors.New("down")))

		fake := &fakeConsumer{deliveries: []mq.Delivery{delivery}}
		require.NoError(t, consumers.NewInboundConsumer(mockIngest, fake, testConfig(), zap.NewNop()).Consume(ctx))

		require.Len(t, fake.results, 1)
		assert.True(t, mq.IsTemporary(fake.results[0]))
	})

	t.Run("validation failure is dropped", func(t *testing.T) {
		mockIngest := &mocks.IngestService{}
		mockIngest.On("Ingest", mock.Anything, mock.Anything).
			Return((*model.Message)(nil), service.NewServiceError(constants.ErrCodeValidation, errors.New("bad")))

		fake := &fakeConsumer{deliveries: []mq.Delivery{delivery}}
		require.NoError(t, consumers.NewInboundConsumer(mockIngest, fake, testConfig(), zap.NewNop()).Consume(ctx))

		require.Len(t, fake.results, 1)
		assert.Error(t, fake.results[0])
		assert.False(t, mq.IsTemporary(fake.results[0]))
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		mockIngest := &mocks.IngestService{}
		fake := &fakeConsumer{deliveries: []mq.Delivery{
			{Body: []byte("{"), MessageID: "m1"},
			{Body: []byte(`{"meta":{"type":"wa.status.v1"},"data":{}}`), MessageID: "m2"},
		}}
		require.NoError(t, consumers.NewInboundConsumer(mockIngest, fake, testConfig(), zap.NewNop()).Consume(ctx))

		require.Len(t, fake.results, 2)
		for _, err := range fake.results {
			assert.Error(t, err)
			assert.False(t, mq.IsTemporary(err))
		}
		mockIngest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	})
}

func TestStatusConsumer(t *testing.T) {
	ctx := context.Background()
	event := events.StatusUpdateV1{
		ProviderMessageID: "wamid.out",
		Status:            "delivered",
		Timestamp:         time.Date(2026, 3, 14, 9, 1, 0, 0, time.UTC),
	}

	delivery := published(t, func(p *publishers.EventPublisher) error {
		return p.DispatchStatus(ctx, event, "corr-2")
	})

	notFound := service.NewServiceError(constants.ErrCodeNotFound, service.ErrMessageNotFound)

	t.Run("applies event", func(t *testing.T) {
		mockStatus := &mocks.StatusService{}
		mockStatus.On("ApplyStatus", mock.Anything, service.StatusCommand(event)).
			Return(service.ApplyStatusResult{Applied: true, Message: &model.Message{ID: 3}}, nil)

		fake := &fakeConsumer{deliveries: []mq.Delivery{delivery}}
		require.NoError(t, consumers.NewStatusConsumer(mockStatus, fake, testConfig(), zap.NewNop()).Consume(ctx))

		assert.Equal(t, "wa.status", fake.queue)
		assert.Equal(t, []error{nil}, fake.results)
		mockStatus.AssertExpectations(t)
	})

	t.Run("unknown message is retried once", func(t *testing.T) {
		mockStatus := &mocks.StatusService{}
		mockStatus.On("ApplyStatus", mock.Anything, mock.Anything).Return(service.ApplyStatusResult{}, notFound)

		redelivered := delivery
		redelivered.Redelivered = true

		fake := &fakeConsumer{deliveries: []mq.Delivery{delivery, redelivered}}
		require.NoError(t, consumers.NewStatusConsumer(mockStatus, fake, testConfig(), zap.NewNop()).Consume(ctx))

		require.Len(t, fake.results, 2)
		assert.True(t, mq.IsTemporary(fake.results[0]))
		assert.NoError(t, fake.results[1])
	})

	t.Run("unknown status is dropped", func(t *testing.T) {
		mockStatus := &mocks.StatusService{}
		fake := &fakeConsumer{deliveries: []mq.Delivery{{
			Body: []byte(`{"meta":{"type":"wa.status.v1"},"data":{"provider_message_id":"wamid.x","status":"deleted"}}`),
		}}}
		require.NoError(t, consumers.NewStatusConsumer(mockStatus, fake, testConfig(), zap.NewNop()).Consume(ctx))

		require.Len(t, fake.results, 1)
		assert.False(t, mq.IsTemporary(fake.results[0]))
		mockStatus.AssertNotCalled(t, "ApplyStatus", mock.Anything, mock.Anything)
	})
}
