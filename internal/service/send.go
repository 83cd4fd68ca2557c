package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"go.uber.org/zap"
)

const MaxTextLength = 4096

type SendService interface {
	SendMessage(ctx context.Context, cmd SendMessageCommand) (*model.Message, error)
}

type send struct {
	provider ProviderService
	ingest   IngestService
	logger   *zap.Logger
}

func NewSendService(provider ProviderService, ingest IngestService, logger *zap.Logger) SendService {
	return &send{provider: provider, ingest: ingest, logger: logger}
}

// SendMessage delivers an outbound message through the provider and records the attempt.
// When the provider refuses, the failed message is still recorded and returned together
// with a PROVIDER_ERROR.
func (s *send) SendMessage(ctx context.Context, cmd SendMessageCommand) (*model.Message, error) {
	if err := validateSend(cmd); err != nil {
		s.logger.Warn("Rejected send request", zap.String("businessNumber", cmd.BusinessNumber), zap.Error(err))
		return nil, validationError(err)
	}

	msgType := cmd.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}

	request := whatsapp.SendRequest{
		To:               cmd.CounterpartNumber,
		Type:             string(msgType),
		Text:             cmd.Text,
		TemplateName:     cmd.TemplateName,
		TemplateLanguage: cmd.TemplateLanguage,
	}

	ingestCmd := IngestMessageCommand{
		BusinessNumber:    cmd.BusinessNumber,
		CounterpartNumber: cmd.CounterpartNumber,
		Direction:         model.DirectionOutbound,
		Type:              msgType,
		Text:              cmd.Text,
		TemplateName:      cmd.TemplateName,
		TemplateLanguage:  cmd.TemplateLanguage,
	}

	response, sendErr := s.provider.SendWithRetry(ctx, cmd.BusinessNumber, request)
	if errors.Is(sendErr, ErrNoCredentials) {
		return nil, validationError(sendErr)
	}

	if sendErr == nil {
		ingestCmd.ProviderMsgID = response.MessageID
		ingestCmd.Status = model.MessageStatusSent
	} else {
		ingestCmd.Status = model.MessageStatusFailed
		ingestCmd.ErrorReason = sendErr.Error()
	}

	msg, err := s.ingest.Ingest(ctx, ingestCmd)
	if err != nil {
		s.logger.Error("Failed to record outbound message",
			zap.String("businessNumber", cmd.BusinessNumber),
			zap.String("counterpartNumber", cmd.CounterpartNumber),
			zap.String("providerMessageID", response.MessageID),
			zap.NamedError("sendError", sendErr),
			zap.Error(err))
		return nil, err
	}

	if sendErr != nil {
		return msg, NewServiceError(constants.ErrCodeProviderError, sendErr)
	}

	return msg, nil
}

func validateSend(cmd SendMessageCommand) error {
	if strings.TrimSpace(cmd.BusinessNumber) == "" || strings.TrimSpace(cmd.CounterpartNumber) == "" {
		return errors.New("business and counterpart numbers are required")
	}

	switch cmd.Type {
	case model.MessageTypeText, "":
		if strings.TrimSpace(cmd.Text) == "" {
			return errors.New("text must not be empty")
		}
		if len([]rune(cmd.Text)) > MaxTextLength {
			return fmt.Errorf("text exceeds %d characters", MaxTextLength)
		}
	case model.MessageTypeTemplate:
		if strings.TrimSpace(cmd.TemplateName) == "" {
			return errors.New("template name is required")
		}
	default:
		return fmt.Errorf("sending %q messages is not supported", cmd.Type)
	}

	return nil
}
