package server

import (
	"log/slog"

	"srefhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler streams the caller's notification events until disconnect.
// Authentication happens before the upgrade, so userID is always set here.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected",
				slog.Uint64("user_id", uint64(uid)), slog.String("error", err.Error()))
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection limit"))
			_ = conn.Close()
			return
		}
		client.Serve()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
