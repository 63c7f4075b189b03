package server

import "github.com/gofiber/fiber/v2"

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notificationService.List(c.UserContext(), actor(c).Username)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationsRead handles PATCH /api/notifications
// @Summary Mark notifications read
// @Tags notifications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{notificationIds=[]string} true "Notification IDs"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications [patch]
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	var req struct {
		NotificationIDs []string `json:"notificationIds"`
		IDs             []string `json:"ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	ids := req.NotificationIDs
	if len(ids) == 0 {
		ids = req.IDs
	}

	if err := s.notificationService.MarkRead(c.UserContext(), actor(c).Username, ids); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
