package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

func testClient(buffer int) *Client {
	return &Client{send: make(chan []byte, buffer)}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := testHub()
	c := testClient(1)

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}

	// Channel must be closed after unregister.
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestHubUnregisterUnknownClient(t *testing.T) {
	hub := testHub()
	// Must not panic or close anything.
	hub.Unregister(testClient(1))
}

func TestHubBroadcast(t *testing.T) {
	hub := testHub()
	c1 := testClient(4)
	c2 := testClient(4)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(CodeIssued("AB12cd", 42))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if ev.Type != "code_issued" {
				t.Errorf("type = %q, want %q", ev.Type, "code_issued")
			}
			if ev.Code != "AB12cd" || ev.Points != 42 {
				t.Errorf("event = %+v", ev)
			}
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubBroadcastDropsWhenFull(t *testing.T) {
	hub := testHub()
	c := testClient(1)
	hub.Register(c)

	hub.Broadcast(CodeIssued("aaaaaa", 10))
	// Buffer is full; this one must be dropped without blocking.
	hub.Broadcast(CodeRedeemed("aaaaaa", 10))

	if len(c.send) != 1 {
		t.Errorf("buffered = %d, want 1", len(c.send))
	}
}
