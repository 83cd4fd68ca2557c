package v1

import (
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetDashboardStats(c *fiber.Ctx) error {
	var request GetDashboardRequest
	if err := h.parseQuery(c, &request); err != nil {
		return err
	}

	stats, err := h.analytics.GetDashboardStats(c.UserContext(), request.BusinessNumber)
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

func (h *Handler) GetAnalytics(c *fiber.Ctx) error {
	var request GetAnalyticsRequest
	if err := h.parseQuery(c, &request); err != nil {
		return err
	}

	days, err := h.analytics.GetAnalytics(c.UserContext(), service.GetAnalyticsQuery{
		BusinessNumber: request.BusinessNumber,
		StartDate:      request.StartDate,
		EndDate:        request.EndDate,
	})
	if err != nil {
		return err
	}

	response := GetAnalyticsResponse{
		BusinessNumber: request.BusinessNumber,
		Days:           make([]DailyMetricsResponse, 0, len(days)),
	}
	for _, day := range days {
		response.Days = append(response.Days, toDailyMetricsResponse(day))
	}

	return c.JSON(response)
}
