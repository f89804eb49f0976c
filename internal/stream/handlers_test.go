package stream

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func startStreamApp(t *testing.T, hub *Hub, authorize WatchAuthorizer) string {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub, func(c *fiber.Ctx) error {
		c.Locals("user_id", "watcher-1")
		return c.Next()
	}, authorize)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/stream/ws/"
}

func waitForWatchers(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.Watchers(sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d watchers on %s, got %d", want, sessionID, hub.Watchers(sessionID))
}

func TestStreamHandlersUpgradeRequired(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), NewHub(nil), func(c *fiber.Ctx) error { return c.Next() }, nil)

	req := httptest.NewRequest(http.MethodGet, "/stream/ws/session-1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426 for non-websocket request, got %d", resp.StatusCode)
	}
}

func TestStreamHandlersRejectUnauthenticated(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	RegisterRoutes(app.Group("/stream"), hub, func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}
	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/stream/ws/session-9", nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %v", resp)
	}
	if hub.Watchers("session-9") != 0 {
		t.Fatalf("unauthenticated client must not be registered")
	}
}

func TestStreamHandlersWebsocketBroadcast(t *testing.T) {
	hub := NewHub(nil)
	base := startStreamApp(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-1", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()
	waitForWatchers(t, hub, "session-1", 1)

	hub.Broadcast("session-1", []byte(`{"status":"active"}`))
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(msg) != `{"status":"active"}` {
		t.Fatalf("unexpected message %q", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("client")); err != nil {
		t.Fatalf("write error: %v", err)
	}
}

func TestStreamHandlersDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	base := startStreamApp(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-2", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	waitForWatchers(t, hub, "session-2", 1)

	conn.Close()
	waitForWatchers(t, hub, "session-2", 0)

	// broadcasting to a session nobody watches is a no-op
	hub.Broadcast("session-2", []byte("ping"))
}

func TestStreamHandlersWebsocketCloseMessage(t *testing.T) {
	hub := NewHub(nil)
	base := startStreamApp(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-3", nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	waitForWatchers(t, hub, "session-3", 1)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()

	waitForWatchers(t, hub, "session-3", 0)
}

func TestStreamHandlersRejectNonOwner(t *testing.T) {
	hub := NewHub(nil)
	seen := make(chan string, 4)
	base := startStreamApp(t, hub, func(userID, sessionID string) error {
		seen <- userID + "@" + sessionID
		if sessionID == "session-own" {
			return nil
		}
		return errors.New("session belongs to another user")
	})

	_, resp, err := websocket.DefaultDialer.Dial(base+"session-other", nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %v", resp)
	}
	if got := <-seen; got != "watcher-1@session-other" {
		t.Fatalf("authorizer saw %q", got)
	}
	if hub.Watchers("session-other") != 0 {
		t.Fatalf("refused client must not be registered")
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"session-own", nil)
	if err != nil {
		t.Fatalf("owner dial error: %v", err)
	}
	defer conn.Close()
	waitForWatchers(t, hub, "session-own", 1)
}
