package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkeye/Relay/internal/adapters/ws"
	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/dispatch"
	"github.com/dkeye/Relay/internal/config"
)

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func startRelay(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Mode:          "release",
		StaticPath:    t.TempDir(),
		ReadLimit:     32768,
		PingPeriod:    50 * time.Millisecond,
		SendBuffer:    32,
		EventLimit:    1000,
		EventInterval: time.Second,
	}
	registry := app.NewRegistry()
	rooms := app.NewDirectory()
	calls := app.NewCallManager()
	hub := ws.NewHub()
	disp := dispatch.New(registry, rooms, calls, hub)

	ctx, cancel := context.WithCancel(context.Background())
	go disp.Run(ctx)

	srv := httptest.NewServer(SetupRouter(cfg, ws.NewController(hub, disp, cfg), rooms, calls))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		hub.CloseAll()
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	data := readEvent(t, conn, "welcome-message")
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal welcome: %v", err)
	}
	const prefix = "You are connected as ID: "
	if !strings.HasPrefix(p.Message, prefix) {
		t.Fatalf("unexpected welcome message %q", p.Message)
	}
	return conn, strings.TrimPrefix(p.Message, prefix)
}

// readEvent waits for the named event, skipping unrelated traffic such
// as departure notifications.
func readEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		var f wireFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("bad frame %q: %v", raw, err)
		}
		if f.Event == event {
			return f.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	b, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func TestRelay_RoomChatOverWebSocket(t *testing.T) {
	srv := startRelay(t)
	a, _ := dial(t, srv)
	b, _ := dial(t, srv)

	send(t, b, "join-room", map[string]string{"room": "r1"})
	// Round-trip through a global chat to know b's join was processed:
	// frames from one socket are dispatched in order.
	send(t, b, "chat-message", map[string]string{"text": "sync"})
	readEvent(t, a, "chat-message")

	send(t, a, "join-room", map[string]string{"room": "r1"})
	send(t, a, "chat-message", map[string]string{"room": "r1", "text": "hi"})

	var msg map[string]string
	if err := json.Unmarshal(readEvent(t, b, "chat-message"), &msg); err != nil {
		t.Fatalf("unmarshal chat: %v", err)
	}
	if msg["text"] != "hi" {
		t.Fatalf("chat content lost: %v", msg)
	}
}

func TestRelay_CallHandshakeOverWebSocket(t *testing.T) {
	srv := startRelay(t)
	a, idA := dial(t, srv)
	b, idB := dial(t, srv)

	send(t, a, "call-user", map[string]string{"targetUserId": idB, "callerId": idA})
	var incoming struct {
		CallerID string `json:"callerId"`
	}
	if err := json.Unmarshal(readEvent(t, b, "incoming-call"), &incoming); err != nil {
		t.Fatalf("unmarshal incoming-call: %v", err)
	}
	if incoming.CallerID != idA {
		t.Fatalf("incoming call from %q, want %q", incoming.CallerID, idA)
	}

	send(t, b, "accept-call", map[string]string{"callerId": idA, "receiverId": idB})
	var accepted struct {
		ReceiverID string `json:"receiverId"`
	}
	if err := json.Unmarshal(readEvent(t, a, "call-accepted"), &accepted); err != nil {
		t.Fatalf("unmarshal call-accepted: %v", err)
	}
	if accepted.ReceiverID != idB {
		t.Fatalf("call accepted by %q, want %q", accepted.ReceiverID, idB)
	}

	send(t, a, "webrtc-signal", map[string]any{
		"targetUserId": idB,
		"signal":       map[string]string{"type": "offer", "sdp": "v=0"},
	})
	var sig struct {
		Signal   map[string]string `json:"signal"`
		SenderID string            `json:"senderId"`
	}
	if err := json.Unmarshal(readEvent(t, b, "webrtc-signal"), &sig); err != nil {
		t.Fatalf("unmarshal webrtc-signal: %v", err)
	}
	if sig.SenderID != idA || sig.Signal["type"] != "offer" {
		t.Fatalf("signal not relayed verbatim: %+v", sig)
	}

	// Peer disconnect ends the call and notifies the remaining party.
	b.Close()
	var ended struct {
		PeerID string `json:"peerId"`
	}
	if err := json.Unmarshal(readEvent(t, a, "call-ended"), &ended); err != nil {
		t.Fatalf("unmarshal call-ended: %v", err)
	}
	if ended.PeerID != idB {
		t.Fatalf("call ended by %q, want %q", ended.PeerID, idB)
	}
}
