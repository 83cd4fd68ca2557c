package middleware

import (
	"errors"

	"github.com/Behyna/wa-inbox/internal/constants"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr, logger)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(Response{
				Code:    fiberErrorCode(fiberErr.Code),
				Message: fiberErr.Message,
			})
		}

		logger.Error("Unhandled request error",
			zap.Error(err),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()))

		return c.Status(fiber.StatusInternalServerError).JSON(Response{
			Code:    constants.ErrCodeInternalError,
			Message: constants.GetErrorMessage(constants.ErrCodeInternalError),
		})
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error, logger *zap.Logger) error {
	errorCode := err.Code

	status := constants.GetHTTPStatus(errorCode)
	if status == fiber.StatusInternalServerError && err.Code != constants.ErrCodeInternalError {
		errorCode = constants.ErrCodeInternalError
	}

	response := Response{
		Code:    errorCode,
		Message: constants.GetErrorMessage(errorCode),
	}

	switch errorCode {
	case constants.ErrCodeValidation, constants.ErrCodeConflict, constants.ErrCodeNotFound,
		constants.ErrCodeProviderError, constants.ErrCodeInvalidRequestBody:
		response.Error = err.Cause.Error()
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("code", errorCode),
			zap.String("path", c.Path()),
			zap.Error(err.Cause))
	}

	return c.Status(status).JSON(response)
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return constants.ErrCodeNotFound
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return constants.ErrCodeInvalidRequestBody
	case fiber.StatusUnauthorized:
		return constants.ErrCodeUnauthorized
	}
	return constants.ErrCodeInternalError
}
