package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("session-1", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubBroadcastOtherSession(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("session-1")
	defer hub.Unregister(client)

	hub.Broadcast("session-2", []byte("hello"))

	select {
	case <-client.Send:
		t.Fatalf("message leaked to another session")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "activity:abc:snapshots" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	if sessionIDFromChannel("bad") != "" {
		t.Fatalf("expected empty session id")
	}
	if sessionIDFromChannel("tracking:abc:broadcast") != "" {
		t.Fatalf("expected empty session id for foreign channel")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("session-2")
	if hub.Watchers("session-2") != 1 {
		t.Fatalf("expected one watcher")
	}
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Watchers("session-2") != 0 {
		t.Fatalf("expected no watchers")
	}
}

func TestHubDropsWhenWatcherIsSlow(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("session-slow")
	defer hub.Unregister(client)

	for i := 0; i < cap(client.Send)+10; i++ {
		hub.Broadcast("session-slow", []byte("x"))
	}
	if len(client.Send) != cap(client.Send) {
		t.Fatalf("expected full buffer, got %d", len(client.Send))
	}
}

func TestHubRedisRelaysBetweenInstances(t *testing.T) {
	s := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer clientB.Close()

	hubA := NewHub(clientA)
	hubB := NewHub(clientB)

	local := hubA.Register("session-redis")
	defer hubA.Unregister(local)
	remote := hubB.Register("session-redis")
	defer hubB.Unregister(remote)

	hubA.Broadcast("session-redis", []byte(`{"distance_km":1.5}`))

	select {
	case msg := <-local.Send:
		if string(msg) != `{"distance_km":1.5}` {
			t.Fatalf("unexpected local message %q", msg)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for local broadcast")
	}

	select {
	case msg := <-remote.Send:
		if string(msg) != `{"distance_km":1.5}` {
			t.Fatalf("unexpected relayed message %q", msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for relayed message")
	}

	// the origin hub ignores its own echo
	select {
	case msg := <-local.Send:
		t.Fatalf("unexpected duplicate %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRedisIgnoresMalformed(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("session-x")
	defer hub.Unregister(ws)

	if err := client.Publish(context.Background(), redisChannel("session-x"), "not json").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	msg, _ := json.Marshal(envelope{Origin: "other", Payload: []byte("pong")})
	if err := client.Publish(context.Background(), redisChannel("session-x"), msg).Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case got := <-ws.Send:
		if string(got) != "pong" {
			t.Fatalf("unexpected message %q", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("session-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("session-bad", []byte("ping"))
	select {
	case <-clientNode.Send:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("local delivery should not depend on redis")
	}
}
