package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/Behyna/wa-inbox/internal/constants"
	middleware "github.com/Behyna/wa-inbox/internal/error"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorHandler(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"validation", service.NewServiceError(constants.ErrCodeValidation, errors.New("text must not be empty")),
			fiber.StatusBadRequest, constants.ErrCodeValidation, "text must not be empty"},
		{"conflict", service.NewServiceError(constants.ErrCodeConflict, service.ErrPairMismatch),
			fiber.StatusConflict, constants.ErrCodeConflict, service.ErrPairMismatch.Error()},
		{"store outage hides cause", service.NewServiceError(constants.ErrCodeStoreUnavailable, errors.New("dial tcp")),
			fiber.StatusServiceUnavailable, constants.ErrCodeStoreUnavailable, ""},
		{"unknown code", service.NewServiceError("SOMETHING", errors.New("boom")),
			fiber.StatusInternalServerError, constants.ErrCodeInternalError, ""},
		{"fiber not found", fiber.ErrNotFound, fiber.StatusNotFound, constants.ErrCodeNotFound, ""},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, constants.ErrCodeInternalError, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(zap.NewNop())})
			app.Get("/", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var body middleware.Response
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantCode, body.Code)
			assert.Equal(t, tc.wantDetail, body.Error)
		})
	}
}
