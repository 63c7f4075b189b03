package server

import "github.com/gofiber/fiber/v2"

// GetConversations handles GET /api/messages
// @Summary List conversations
// @Description One entry per counterpart with the latest message, newest first
// @Tags messages
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Conversation
// @Router /messages [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.messageService.Conversations(c.UserContext(), actor(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(conversations)
}

// SendMessage handles POST /api/messages
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Receiver string `json:"receiver"`
		Content  string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.Send(c.UserContext(), actor(c), req.Receiver, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetThread handles GET /api/messages/:username
func (s *Server) GetThread(c *fiber.Ctx) error {
	msgs, err := s.messageService.Thread(c.UserContext(), actor(c), param(c, "username"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msgs)
}
