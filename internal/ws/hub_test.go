package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bunnybingsu/api/internal/docstore"
	"go.uber.org/zap"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 16),
		log:   zap.NewNop(),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
	return Event{}
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, TopicOrders)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.Clients(TopicOrders) != 1 {
		t.Fatal("client not registered in orders room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, TopicOrders)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[TopicOrders] != nil {
		t.Fatal("room not cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("send channel should be closed")
	}
}

func TestBroadcastIsScopedToTopic(t *testing.T) {
	hub := startHub(t)
	orders1 := mockClient(hub, TopicOrders)
	orders2 := mockClient(hub, TopicOrders)
	menu := mockClient(hub, TopicMenu)
	for _, c := range []*Client{orders1, orders2, menu} {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	payload := json.RawMessage(`[{"id":"o1"}]`)
	hub.Broadcast(TopicOrders, Event{Type: "orders.snapshot", Payload: payload})

	for i, c := range []*Client{orders1, orders2} {
		ev := receive(t, c)
		if ev.Type != "orders.snapshot" {
			t.Errorf("client%d: expected type 'orders.snapshot', got '%s'", i+1, ev.Type)
		}
		if string(ev.Payload) != string(payload) {
			t.Errorf("client%d: payload %s", i+1, ev.Payload)
		}
	}

	select {
	case <-menu.send:
		t.Fatal("menu client should not receive orders event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubReplaysLatestToNewClient(t *testing.T) {
	hub := startHub(t)

	hub.Broadcast(TopicMenu, Event{Type: "menu.snapshot", Payload: json.RawMessage(`[1]`)})
	hub.Broadcast(TopicMenu, Event{Type: "menu.snapshot", Payload: json.RawMessage(`[1,2]`)})
	time.Sleep(10 * time.Millisecond)

	late := mockClient(hub, TopicMenu)
	hub.register <- late

	ev := receive(t, late)
	if string(ev.Payload) != `[1,2]` {
		t.Fatalf("expected latest snapshot, got %s", ev.Payload)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	slow := &Client{hub: hub, topic: TopicOrders, send: make(chan []byte, 1), log: zap.NewNop()}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		hub.Broadcast(TopicOrders, Event{Type: "orders.snapshot", Payload: json.RawMessage(`[]`)})
	}
	time.Sleep(20 * time.Millisecond)

	if hub.Clients(TopicOrders) != 0 {
		t.Fatal("slow client should be dropped")
	}
}

func TestHubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := mockClient(hub, TopicMenu)
	if !hub.join(client) {
		t.Fatal("join should succeed while the hub runs")
	}
	cancel()
	<-stopped

	if _, ok := <-client.send; ok {
		t.Fatal("send channel should be closed on shutdown")
	}

	returned := make(chan struct{})
	go func() {
		hub.leave(client)
		if hub.join(mockClient(hub, TopicMenu)) {
			t.Error("join should fail after shutdown")
		}
		hub.Broadcast(TopicMenu, Event{Type: "menu.snapshot", Payload: json.RawMessage(`[]`)})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
}

func TestFeedRelaysSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	client := mockClient(hub, TopicMenu)
	hub.register <- client

	store := docstore.NewMemoryStore()
	encode := func(docs []docstore.Document) any {
		names := []string{}
		for _, d := range docs {
			name, _ := d.Data["name"].(string)
			names = append(names, name)
		}
		return names
	}
	done := make(chan error, 1)
	go func() {
		done <- Feed(ctx, hub, store, "menu", TopicMenu, "menu.snapshot", encode, zap.NewNop())
	}()

	first := receive(t, client)
	if first.Type != "menu.snapshot" || string(first.Payload) != `[]` {
		t.Fatalf("unexpected first event: %s %s", first.Type, first.Payload)
	}

	if _, err := store.Create(ctx, "menu", map[string]any{"name": "Toast"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	next := receive(t, client)
	if string(next.Payload) != `["Toast"]` {
		t.Fatalf("unexpected payload: %s", next.Payload)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("feed did not stop")
	}
}
