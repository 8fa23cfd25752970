package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func newTestHub() *Hub {
	return NewHub(slog.Default())
}

func TestNewMessageType(t *testing.T) {
	msg := NewMessage(EntityHousehold, "updated", "h1")
	if msg.Type != "household_updated" {
		t.Errorf("type = %q, want household_updated", msg.Type)
	}
	if msg.ID != "h1" {
		t.Errorf("id = %q, want h1", msg.ID)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte, 1)}

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Fatalf("count = %d, want 0", hub.ClientCount())
	}

	// Double unregister must not panic on the closed channel
	hub.Unregister(c)
}

func TestHubBroadcast(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.Register(c)

	hub.Broadcast(NewMessage(EntityList, "created", "l1"))

	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Entity != EntityList || msg.Action != "created" || msg.ID != "l1" {
			t.Errorf("got %+v", msg)
		}
	default:
		t.Fatal("expected a buffered message")
	}
}

func TestHubBroadcastDropsWhenFull(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte)} // unbuffered, nothing reading
	hub.Register(c)

	// Must not block
	hub.Broadcast(NewMessage(EntityItem, "updated", "i1"))
}
