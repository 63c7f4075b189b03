package server

import (
	"devgram/internal/middleware"
	"devgram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const wsUsernameKey = "wsUsername"

// requireUpgrade rejects plain HTTP requests before a ticket is spent on them.
func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	return c.Next()
}

// WebsocketHandler streams the caller's notifications. It must run behind
// Authenticator.TicketRequired.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		username, _ := conn.Locals(wsUsernameKey).(string)
		logger := middleware.Logger.With("component", "websocket", "username", username)

		client, err := s.hub.Register(username, conn)
		if err != nil {
			logger.Warn("websocket rejected", "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		logger.Info("websocket connected")

		go client.WritePump()
		client.ReadPump()
		logger.Info("websocket disconnected")
	})

	return func(c *fiber.Ctx) error {
		claims := middleware.ClaimsFrom(c)
		if claims == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
		}
		c.Locals(wsUsernameKey, claims.Username)
		return upgrade(c)
	}
}
