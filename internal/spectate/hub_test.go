package spectate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Iron-Ham/pokebattle/internal/event"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + Path
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type received struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestHub_StreamsEvents(t *testing.T) {
	bus := event.NewBus(nil)
	hub := NewHub()
	hub.Attach(bus)
	defer hub.Close()

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, wsURL(srv))
	waitForClients(t, hub, 1)

	bus.Publish(event.NewDamageAppliedEvent("s-1", 2, "CHARIZARD", "BLASTOISE", event.SidePeer, "Tackle", 12, 67, 79))

	msg := readMessage(t, conn)
	if msg.Type != event.TypeDamageApplied {
		t.Errorf("type = %q, want %q", msg.Type, event.TypeDamageApplied)
	}
	if msg.Time.IsZero() {
		t.Error("time should be set")
	}
	var data struct {
		SessionID string `json:"session_id"`
		Damage    int    `json:"damage"`
		HP        int    `json:"hp"`
		Defender  string `json:"defender"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.SessionID != "s-1" || data.Damage != 12 || data.HP != 67 || data.Defender != "BLASTOISE" {
		t.Errorf("data = %+v", data)
	}
}

func TestHub_IgnoresInbound(t *testing.T) {
	bus := event.NewBus(nil)
	hub := NewHub()
	hub.Attach(bus)
	defer hub.Close()

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, wsURL(srv))
	waitForClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"attack","move":"Tackle"}`)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	bus.Publish(event.NewChatEvent("s-1", event.SidePeer, "still here"))

	if msg := readMessage(t, conn); msg.Type != event.TypeChat {
		t.Errorf("type = %q, want %q", msg.Type, event.TypeChat)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}
}

func TestHub_Snapshot(t *testing.T) {
	hub := NewHub(WithSnapshot(func() any {
		return map[string]string{"state": "READY_TO_ATTACK"}
	}))
	defer hub.Close()

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, wsURL(srv))
	msg := readMessage(t, conn)
	if msg.Type != TypeSnapshot {
		t.Errorf("first message type = %q, want %q", msg.Type, TypeSnapshot)
	}
	if !strings.Contains(string(msg.Data), "READY_TO_ATTACK") {
		t.Errorf("snapshot data = %s", msg.Data)
	}
}

func TestHub_EventDuringSnapshot(t *testing.T) {
	bus := event.NewBus(nil)
	hub := NewHub(WithSnapshot(func() any {
		// An event published while the snapshot is being taken.
		bus.Publish(event.NewChatEvent("s-1", event.SidePeer, "mid-snapshot"))
		return map[string]string{"state": "READY_TO_DEFEND"}
	}))
	hub.Attach(bus)
	defer hub.Close()

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, wsURL(srv))
	if msg := readMessage(t, conn); msg.Type != TypeSnapshot {
		t.Fatalf("first message type = %q, want %q", msg.Type, TypeSnapshot)
	}
	msg := readMessage(t, conn)
	if msg.Type != event.TypeChat {
		t.Fatalf("second message type = %q, want %q", msg.Type, event.TypeChat)
	}
	if !strings.Contains(string(msg.Data), "mid-snapshot") {
		t.Errorf("chat data = %s", msg.Data)
	}
}

func TestHub_MultipleClients(t *testing.T) {
	bus := event.NewBus(nil)
	hub := NewHub()
	hub.Attach(bus)
	defer hub.Close()

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	a := dial(t, wsURL(srv))
	b := dial(t, wsURL(srv))
	waitForClients(t, hub, 2)

	bus.Publish(event.NewBattleOverEvent("s-1", "WIN", 5, 30, 0))
	for _, conn := range []*websocket.Conn{a, b} {
		if msg := readMessage(t, conn); msg.Type != event.TypeBattleOver {
			t.Errorf("type = %q, want %q", msg.Type, event.TypeBattleOver)
		}
	}

	a.Close()
	waitForClients(t, hub, 1)
}

func TestHub_NotFound(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/other")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHub_Close(t *testing.T) {
	bus := event.NewBus(nil)
	hub := NewHub()
	hub.Attach(bus)

	addr, err := hub.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	conn := dial(t, "ws://"+addr.String()+Path)
	waitForClients(t, hub, 1)

	if err := hub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Close, want 0", bus.SubscriptionCount())
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client should be disconnected after Close")
	}
	if err := hub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := hub.Start("127.0.0.1:0"); err == nil {
		t.Error("Start() after Close should fail")
	}
}
