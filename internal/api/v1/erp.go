package v1

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Behyna/wa-inbox/internal/api/validator"
	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	erpAPIKeyHeader = "X-API-Key"

	erpTestConnection = "connection"
	erpTestMessage    = "message"
	erpTestFull       = "full"

	erpTestText = "WhatsApp inbox connection test"
)

var (
	errMissingRecipient = errors.New("missing required fields: to, message")
	errInvalidPhone     = errors.New("invalid phone number format")
	errMessageTooLong   = fmt.Errorf("message exceeds maximum length of %d characters", service.MaxTextLength)
	errNoDefaultNumber  = errors.New("no default business number configured")
)

func (h *Handler) ERPInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ERP API is operational",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": fiber.Map{
			"sendMessage": "POST /api/erp/send-message",
			"getStatus":   "GET /api/erp/message-status?messageId=",
			"test":        "POST /api/erp/test",
		},
	})
}

// ERPSendMessage sends a text message from the default business number on behalf of an ERP system.
func (h *Handler) ERPSendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	now := time.Now().UTC().Format(time.RFC3339)

	var request ERPSendMessageRequest
	if err := c.BodyParser(&request); err != nil {
		h.logger.Warn("Failed to parse ERP body", zap.Error(err))
		return h.erpFailure(c, constants.ErrCodeInvalidRequestBody, "", now,
			constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody))
	}

	if !h.validAPIKey(h.apiKey(c, request.APIKey)) {
		return h.erpFailure(c, constants.ErrCodeUnauthorized, request.To, now,
			constants.GetErrorMessage(constants.ErrCodeUnauthorized))
	}

	if err := validateERPMessage(request); err != nil {
		return h.erpFailure(c, constants.ErrCodeValidation, request.To, now, err.Error())
	}

	if h.erp.DefaultBusinessNumber == "" {
		h.logger.Error("ERP send rejected", zap.Error(errNoDefaultNumber))
		return h.erpFailure(c, constants.ErrCodeInternalError, request.To, now, errNoDefaultNumber.Error())
	}

	msg, err := h.send.SendMessage(ctx, service.SendMessageCommand{
		BusinessNumber:    h.erp.DefaultBusinessNumber,
		CounterpartNumber: service.NormalizeNumber(validator.StripPhone(request.To)),
		Type:              model.MessageTypeText,
		Text:              request.Message,
	})

	response := ERPMessageResponse{Timestamp: now, To: request.To}
	if msg != nil {
		response.MessageID = strconv.FormatInt(msg.ID, 10)
		response.Status = string(msg.Status)
	}

	if err != nil {
		code := service.ErrorCode(err)
		h.logger.Warn("ERP send failed",
			zap.String("to", request.To),
			zap.String("priority", request.Priority),
			zap.String("code", code),
			zap.Error(err))

		response.Status = string(model.MessageStatusFailed)
		response.Error = constants.GetErrorMessage(code)
		var serviceErr service.Error
		if errors.As(err, &serviceErr) && code != constants.ErrCodeInternalError {
			response.Error = serviceErr.Cause.Error()
		}
		return c.Status(constants.GetHTTPStatus(code)).JSON(response)
	}

	h.logger.Info("ERP message sent",
		zap.Int64("messageID", msg.ID),
		zap.String("to", request.To),
		zap.String("messageType", request.MessageType),
		zap.String("priority", request.Priority))

	response.Success = true
	return c.JSON(response)
}

// ERPMessageStatus reports the stored delivery state. The id is either the message id
// returned by send-message or the provider message id.
func (h *Handler) ERPMessageStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	messageID := c.Query("messageId", c.Params("messageId"))
	if messageID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message ID is required"})
	}

	var (
		msg *model.Message
		err error
	)
	if id, parseErr := strconv.ParseInt(messageID, 10, 64); parseErr == nil {
		msg, err = h.messages.GetMessage(ctx, id)
	} else {
		msg, err = h.messages.GetByProviderMessageID(ctx, messageID)
	}

	if err != nil {
		code := service.ErrorCode(err)
		return c.Status(constants.GetHTTPStatus(code)).JSON(fiber.Map{"error": constants.GetErrorMessage(code)})
	}

	response := ERPMessageStatusResponse{
		MessageID: messageID,
		Status:    string(msg.Status),
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	}
	if msg.DeliveredAt != nil {
		response.DeliveredAt = msg.DeliveredAt.UTC().Format(time.RFC3339)
	}
	if msg.ReadAt != nil {
		response.ReadAt = msg.ReadAt.UTC().Format(time.RFC3339)
	}
	if msg.ErrorReason != nil {
		response.Error = *msg.ErrorReason
	}

	return c.JSON(response)
}

// ERPTest runs the integration checks an ERP operator uses to validate its setup.
func (h *Handler) ERPTest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	start := time.Now()

	var request ERPTestRequest
	if err := c.BodyParser(&request); err != nil {
		return service.NewServiceError(constants.ErrCodeInvalidRequestBody, err)
	}

	testType := request.TestType
	if testType == "" {
		testType = erpTestConnection
	}

	response := ERPTestResponse{Success: true, Tests: make(map[string]ERPCheck)}

	apiKey := h.apiKey(c, request.APIKey)
	switch {
	case apiKey == "":
		response.Tests["apiKeyValidation"] = ERPCheck{Message: "API key is missing"}
	case !h.validAPIKey(apiKey):
		response.Tests["apiKeyValidation"] = ERPCheck{Message: "Invalid API key"}
	default:
		response.Tests["apiKeyValidation"] = ERPCheck{Passed: true, Message: "API key is valid"}
	}

	switch {
	case request.To == "":
		response.Tests["phoneNumberValidation"] = ERPCheck{Message: "Phone number is missing"}
	case !validator.IsPhone(request.To):
		response.Tests["phoneNumberValidation"] = ERPCheck{Message: "Invalid phone number format"}
	default:
		response.Tests["phoneNumberValidation"] = ERPCheck{Passed: true, Message: "Phone number is valid"}
	}

	if _, err := h.analytics.GetDashboardStats(ctx, h.erp.DefaultBusinessNumber); err != nil &&
		service.ErrorCode(err) != constants.ErrCodeValidation {
		response.Tests["storeConnection"] = ERPCheck{Message: "Store is unavailable"}
	} else {
		response.Tests["storeConnection"] = ERPCheck{Passed: true, Message: "Store is reachable"}
	}

	if testType == erpTestMessage || testType == erpTestFull {
		response.Tests["messageDelivery"] = h.erpTestDelivery(c, request, response.Tests)
	}

	for _, check := range response.Tests {
		if !check.Passed {
			response.Success = false
		}
	}

	response.Duration = time.Since(start).Milliseconds()
	response.Timestamp = time.Now().UTC().Format(time.RFC3339)

	status := fiber.StatusOK
	if !response.Success {
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(response)
}

func (h *Handler) erpTestDelivery(c *fiber.Ctx, request ERPTestRequest, tests map[string]ERPCheck) ERPCheck {
	if !tests["apiKeyValidation"].Passed || !tests["phoneNumberValidation"].Passed {
		return ERPCheck{Message: "Cannot send test message due to validation failures"}
	}

	msg, err := h.send.SendMessage(c.UserContext(), service.SendMessageCommand{
		BusinessNumber:    h.erp.DefaultBusinessNumber,
		CounterpartNumber: service.NormalizeNumber(validator.StripPhone(request.To)),
		Type:              model.MessageTypeText,
		Text:              erpTestText,
	})
	if err != nil {
		h.logger.Warn("ERP test message failed", zap.String("to", request.To), zap.Error(err))
		return ERPCheck{Message: "Test message failed: " + constants.GetErrorMessage(service.ErrorCode(err))}
	}

	return ERPCheck{Passed: true, Message: "Test message sent successfully", MessageID: strconv.FormatInt(msg.ID, 10)}
}

func (h *Handler) erpFailure(c *fiber.Ctx, code, to, timestamp, reason string) error {
	return c.Status(constants.GetHTTPStatus(code)).JSON(ERPMessageResponse{
		Timestamp: timestamp,
		To:        to,
		Status:    string(model.MessageStatusFailed),
		Error:     reason,
	})
}

func (h *Handler) apiKey(c *fiber.Ctx, bodyKey string) string {
	if key := c.Get(erpAPIKeyHeader); key != "" {
		return key
	}
	return bodyKey
}

func (h *Handler) validAPIKey(key string) bool {
	if key == "" {
		return false
	}

	for _, valid := range h.erp.APIKeys {
		if subtle.ConstantTimeCompare([]byte(valid), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

func validateERPMessage(request ERPSendMessageRequest) error {
	if strings.TrimSpace(request.To) == "" || strings.TrimSpace(request.Message) == "" {
		return errMissingRecipient
	}

	if !validator.IsPhone(request.To) {
		return errInvalidPhone
	}

	if utf8.RuneCountInString(request.Message) > service.MaxTextLength {
		return errMessageTooLong
	}

	return nil
}
