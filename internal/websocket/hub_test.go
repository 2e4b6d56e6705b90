package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/usecase"
)

func setupTestHub(t testing.TB) *Hub {
	t.Helper()
	hub := NewHub(&usecase.ConversationService{}, zap.NewNop())
	go hub.Run()
	return hub
}

func TestNewHub(t *testing.T) {
	hub := setupTestHub(t)

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}
	if hub.register == nil {
		t.Error("Hub register channel not initialized")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel not initialized")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func newTestServer(t *testing.T, hub *Hub, sessionID string) *httptest.Server {
	t.Helper()
	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleConnection(hub, c, sessionID, zap.NewNop())
	})
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients, got %d", want, hub.ClientCount())
}

func TestClientRegistration(t *testing.T) {
	hub := setupTestHub(t)
	server := newTestServer(t, hub, "session-1")

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestDuplicateSessionReplacesClient(t *testing.T) {
	hub := setupTestHub(t)
	server := newTestServer(t, hub, "session-1")

	first := dial(t, server)
	waitForClients(t, hub, 1)

	// A second connection for the same session takes over.
	dial(t, server)
	waitForClients(t, hub, 1)

	// The first connection is closed by the hub.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
}

func TestEnqueueAfterDisconnect(t *testing.T) {
	hub := setupTestHub(t)
	server := newTestServer(t, hub, "session-1")

	dial(t, server)
	waitForClients(t, hub, 1)

	hub.mu.RLock()
	client := hub.clients["session-1"]
	hub.mu.RUnlock()
	if client == nil {
		t.Fatal("Expected registered client for session-1")
	}

	// A turn goroutine can outlive the connection. Delivering to a
	// client that already shut down must drop the frame, not panic.
	client.shutdown()
	client.shutdown()
	waitForClients(t, hub, 0)

	client.enqueue(CreatePongMessage("late"))
}

func TestPingPongOverConnection(t *testing.T) {
	hub := setupTestHub(t)
	server := newTestServer(t, hub, "session-1")

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "ping", "data": "keepalive"}`))
	if err != nil {
		t.Fatalf("Failed to write ping: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong PongMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("Failed to read pong: %v", err)
	}
	if pong.Type != MessageTypePong {
		t.Errorf("Expected pong, got %s", pong.Type)
	}
	if pong.Data != "keepalive" {
		t.Errorf("Expected data keepalive, got %s", pong.Data)
	}
}

func TestMalformedFrameGetsError(t *testing.T) {
	hub := setupTestHub(t)
	server := newTestServer(t, hub, "session-1")

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var errMsg ErrorMessage
	if err := conn.ReadJSON(&errMsg); err != nil {
		t.Fatalf("Failed to read error frame: %v", err)
	}
	if errMsg.Type != MessageTypeError {
		t.Errorf("Expected error frame, got %s", errMsg.Type)
	}
	if errMsg.Code != "invalid_message" {
		t.Errorf("Expected code invalid_message, got %s", errMsg.Code)
	}
}
