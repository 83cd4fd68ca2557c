package v1

import (
	"context"

	"github.com/Behyna/wa-inbox/internal/model"
	"github.com/Behyna/wa-inbox/internal/service"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetConversations(c *fiber.Ctx) error {
	var request GetConversationsRequest
	if err := h.parseQuery(c, &request); err != nil {
		return err
	}

	conversations, err := h.conversations.GetConversations(c.UserContext(), service.GetConversationsQuery{
		BusinessNumber: request.BusinessNumber,
		Status:         request.Status,
	})
	if err != nil {
		return err
	}

	response := GetConversationsResponse{
		Conversations: make([]ConversationResponse, 0, len(conversations)),
		Total:         len(conversations),
	}
	for i := range conversations {
		response.Conversations = append(response.Conversations, toConversationResponse(&conversations[i]))
	}

	return c.JSON(response)
}

func (h *Handler) GetConversation(c *fiber.Ctx) error {
	return h.conversationAction(c, h.conversations.GetConversation)
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	return h.conversationAction(c, h.conversations.MarkRead)
}

func (h *Handler) Archive(c *fiber.Ctx) error {
	return h.conversationAction(c, h.conversations.Archive)
}

func (h *Handler) Reopen(c *fiber.Ctx) error {
	return h.conversationAction(c, h.conversations.Reopen)
}

func (h *Handler) Close(c *fiber.Ctx) error {
	return h.conversationAction(c, h.conversations.Close)
}

func (h *Handler) conversationAction(c *fiber.Ctx,
	action func(ctx context.Context, conversationID int64) (*model.Conversation, error)) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	conversation, err := action(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toConversationResponse(conversation))
}
