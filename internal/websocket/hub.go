package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/adapters/memstore"
	"github.com/hmm29/conversational-emotion-ai/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	// Time allowed for a full turn through the pipeline.
	turnTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the web client domain is fixed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients, one per session.
type Hub struct {
	// Registered clients keyed by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	mu sync.RWMutex

	conversations *usecase.ConversationService

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(conversations *usecase.ConversationService, logger *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		conversations: conversations,
		logger:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A second connection for the same session replaces the first.
			if existing, ok := h.clients[client.sessionID]; ok {
				existing.shutdown()
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.sessionID]; ok && current == client {
				delete(h.clients, client.sessionID)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages. Never closed; done signals
	// shutdown instead, so turns finishing after a disconnect cannot
	// send on a closed channel.
	send chan []byte

	// Closed exactly once when the client is torn down.
	done      chan struct{}
	closeOnce sync.Once

	// Session ID for this client
	sessionID string

	logger *zap.Logger
}

// shutdown tears the client down. Safe to call from the hub, the pumps,
// and turn goroutines concurrently.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// HandleConnection upgrades an authenticated request and starts the pumps.
func HandleConnection(hub *Hub, c echo.Context, sessionID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		done:      make(chan struct{}),
		sessionID: sessionID,
		logger:    logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
			continue
		}

		c.processMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
// It owns the connection teardown.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage dispatches an incoming frame from the client.
func (c *Client) processMessage(message []byte) {
	parsed, err := ParseMessage(message)
	if err != nil {
		c.logger.Warn("Failed to parse message",
			zap.String("sessionID", c.sessionID),
			zap.Error(err))
		c.enqueue(CreateErrorMessage("invalid_message", err.Error()))
		return
	}

	switch msg := parsed.(type) {
	case *UserMessage:
		go c.handleUserMessage(msg)
	case *PingMessage:
		c.enqueue(CreatePongMessage(msg.Data))
	}
}

// handleUserMessage runs a full conversation turn and streams the reply back.
func (c *Client) handleUserMessage(msg *UserMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	started := time.Now()
	result, err := c.hub.conversations.ProcessTurn(ctx, c.sessionID, msg.Text)
	if err != nil {
		c.logger.Error("Failed to process turn",
			zap.String("sessionID", c.sessionID),
			zap.Error(err))
		c.enqueue(turnError(err))
		return
	}

	c.enqueue(&AIResponseMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeAIResponse,
			Timestamp: time.Now().Format(time.RFC3339),
			MessageID: msg.MessageID,
		},
		SessionID:      c.sessionID,
		Text:           result.Reply,
		Emotion:        result.Emotion.Dominant.Name,
		Confidence:     result.Emotion.Dominant.Score,
		Intensity:      result.Emotion.Intensity,
		Strategy:       string(result.Strategy.Approach),
		Degraded:       result.Degraded,
		ProcessingTime: time.Since(started).Milliseconds(),
	})
}

func turnError(err error) *ErrorMessage {
	switch {
	case errors.Is(err, memstore.ErrSessionNotFound):
		return CreateErrorMessage("session_not_found", "Unknown or ended session")
	case errors.Is(err, memstore.ErrSessionBusy):
		return CreateErrorMessage("turn_in_flight", "A previous message is still being processed")
	default:
		return CreateErrorMessage("internal_error", "Failed to process the message")
	}
}

// enqueue marshals and queues an outbound message. Messages for a
// client that has shut down are dropped; a full buffer drops the
// client.
func (c *Client) enqueue(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	select {
	case <-c.done:
		c.logger.Debug("Dropping message for disconnected client",
			zap.String("sessionID", c.sessionID))
	case c.send <- payload:
	default:
		c.logger.Warn("Client send buffer full, dropping connection",
			zap.String("sessionID", c.sessionID))
		c.shutdown()
	}
}
