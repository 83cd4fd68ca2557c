package v1

import (
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (h *Handler) IngestMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request IngestMessageRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	cmd := service.IngestMessageCommand{
		ProviderMsgID:     request.ProviderMessageID,
		BusinessNumber:    request.BusinessNumber,
		CounterpartNumber: request.CounterpartNumber,
		Direction:         model.Direction(request.Direction),
		Type:              model.MessageType(request.Type),
		Text:              request.Text,
		TemplateName:      request.TemplateName,
		TemplateLanguage:  request.TemplateLanguage,
		MediaURL:          request.MediaURL,
		Caption:           request.Caption,
		Status:            model.MessageStatus(request.Status),
		ErrorReason:       request.ErrorReason,
		CustomerName:      request.CustomerName,
		Timestamp:         timeOrZero(request.Timestamp),
	}

	msg, err := h.ingest.Ingest(ctx, cmd)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(msg))
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request SendMessageRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	msg, err := h.send.SendMessage(ctx, service.SendMessageCommand{
		BusinessNumber:    request.BusinessNumber,
		CounterpartNumber: request.CounterpartNumber,
		Type:              model.MessageType(request.Type),
		Text:              request.Text,
		TemplateName:      request.TemplateName,
		TemplateLanguage:  request.TemplateLanguage,
	})
	if err != nil {
		if msg != nil {
			h.logger.Warn("Outbound message recorded as failed",
				zap.Int64("messageID", msg.ID),
				zap.String("counterpartNumber", request.CounterpartNumber),
				zap.Error(err))
		}
		return err
	}

	h.logger.Info("Message sent",
		zap.Int64("messageID", msg.ID),
		zap.String("businessNumber", request.BusinessNumber),
		zap.String("counterpartNumber", request.CounterpartNumber))

	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(msg))
}

func (h *Handler) ApplyStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request ApplyStatusRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	result, err := h.status.ApplyStatus(ctx, service.ApplyStatusCommand{
		ProviderMsgID: request.ProviderMessageID,
		Status:        model.MessageStatus(request.Status),
		Timestamp:     timeOrZero(request.Timestamp),
		ErrorReason:   request.ErrorReason,
	})
	if err != nil {
		return err
	}

	return c.JSON(ApplyStatusResponse{Applied: result.Applied, Message: toMessageResponse(result.Message)})
}

func (h *Handler) AttachProviderMessageID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var request AttachProviderMessageIDRequest
	if err := h.parseBody(c, &request); err != nil {
		return err
	}

	msg, err := h.status.AttachProviderMessageID(ctx, service.AttachProviderMessageIDCommand{
		MessageID:     id,
		ProviderMsgID: request.ProviderMessageID,
	})
	if err != nil {
		return err
	}

	return c.JSON(toMessageResponse(msg))
}

func (h *Handler) GetMessage(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	msg, err := h.messages.GetMessage(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toMessageResponse(msg))
}

func (h *Handler) GetMessages(c *fiber.Ctx) error {
	var request GetMessagesRequest
	if err := h.parseQuery(c, &request); err != nil {
		return err
	}

	messages, err := h.messages.GetMessages(c.UserContext(), service.GetMessagesQuery{
		BusinessNumber:    request.BusinessNumber,
		CounterpartNumber: request.CounterpartNumber,
		Limit:             request.Limit,
	})
	if err != nil {
		return err
	}

	response := GetMessagesResponse{Messages: make([]MessageResponse, 0, len(messages)), Total: len(messages)}
	for i := range messages {
		response.Messages = append(response.Messages, toMessageResponse(&messages[i]))
	}

	return c.JSON(response)
}
