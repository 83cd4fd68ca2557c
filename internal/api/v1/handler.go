package v1

import (
	"strconv"

	"github.com/Behyna/wa-inbox/internal/api/validator"
	"github.com/Behyna/wa-inbox/internal/config"
	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Logger        *zap.Logger
	Config        *config.Config
	Validator     validator.IXValidator
	Ingest        service.IngestService
	Status        service.StatusService
	Messages      service.MessageService
	Conversations service.ConversationService
	Analytics     service.AnalyticsService
	Send          service.SendService
	Webhook       service.WebhookService
}

type Handler struct {
	logger        *zap.Logger
	validator     validator.IXValidator
	ingest        service.IngestService
	status        service.StatusService
	messages      service.MessageService
	conversations service.ConversationService
	analytics     service.AnalyticsService
	send          service.SendService
	webhook       service.WebhookService
	erp           config.ERP
}

func NewHandler(p Params) *Handler {
	return &Handler{
		logger:        p.Logger,
		validator:     p.Validator,
		ingest:        p.Ingest,
		status:        p.Status,
		messages:      p.Messages,
		conversations: p.Conversations,
		analytics:     p.Analytics,
		send:          p.Send,
		webhook:       p.Webhook,
		erp:           p.Config.ERP,
	}
}

// parseBody decodes and validates the JSON body into request.
func (h *Handler) parseBody(c *fiber.Ctx, request interface{}) error {
	if err := c.BodyParser(request); err != nil {
		h.logger.Warn("Failed to parse body",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("body", string(c.Body())))
		return service.NewServiceError(constants.ErrCodeInvalidRequestBody, err)
	}

	if err := h.validator.Check(request); err != nil {
		h.logger.Warn("Request validation failed", zap.String("path", c.Path()), zap.Error(err))
		return service.NewServiceError(constants.ErrCodeValidation, err)
	}

	return nil
}

func (h *Handler) parseQuery(c *fiber.Ctx, request interface{}) error {
	if err := c.QueryParser(request); err != nil {
		return service.NewServiceError(constants.ErrCodeValidation, err)
	}

	if err := h.validator.Check(request); err != nil {
		return service.NewServiceError(constants.ErrCodeValidation, err)
	}

	return nil
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, service.NewServiceError(constants.ErrCodeValidation, errInvalidID)
	}
	return id, nil
}
