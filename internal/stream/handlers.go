package stream

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WatchAuthorizer decides whether userID may watch sessionID.
type WatchAuthorizer func(userID, sessionID string) error

// RegisterRoutes exposes a websocket feed of live snapshots per session.
//
// The handshake runs authMiddleware and then authorize, which should only
// admit the session owner. A request it refuses gets 403 before the upgrade.
// A nil authorize lets any authenticated user watch any session.
func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler, authorize WatchAuthorizer) {
	r.Get("/ws/:sessionID", requireUpgrade, authMiddleware, requireWatcher(authorize), websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client := hub.Register(sessionID)
		log.Printf("stream: %v watching session %s", c.Locals("user_id"), sessionID)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		// closes client.Send, which ends the writer
		hub.Unregister(client)
		<-done
	}))
}

func requireWatcher(authorize WatchAuthorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if authorize == nil {
			return c.Next()
		}
		userID, _ := c.Locals("user_id").(string)
		sessionID := c.Params("sessionID")
		if err := authorize(userID, sessionID); err != nil {
			log.Printf("stream: %q refused on session %s: %v", userID, sessionID, err)
			return fiber.NewError(fiber.StatusForbidden, "not allowed to watch this session")
		}
		return c.Next()
	}
}

func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}
