package v1

import (
	"github.com/Behyna/wa-inbox/pkg/whatsapp"
	"github.com/gofiber/fiber/v2"
)

// VerifyWebhook answers Meta's GET subscription challenge.
func (h *Handler) VerifyWebhook(c *fiber.Ctx) error {
	challenge, err := h.webhook.Verify(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		return c.SendStatus(fiber.StatusForbidden)
	}

	return c.SendString(challenge)
}

func (h *Handler) ReceiveWebhook(c *fiber.Ctx) error {
	result, err := h.webhook.Handle(c.UserContext(), c.Body(), c.Get(whatsapp.SignatureHeader))
	if err != nil {
		return err
	}

	return c.JSON(WebhookResponse{Received: true, Result: result})
}
