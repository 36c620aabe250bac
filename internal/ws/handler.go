// Package ws serves the companion chat over a websocket. Each frame from the
// client is one user turn; the answer frame carries the reply and the full
// transcript, the same shape as POST /api/companion/chat.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"aura/backend/internal/models"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/logger"
	"aura/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Frame types
const (
	TypeChat     = "chat"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeHistory  = "chat_history"
	TypeResponse = "chat_response"
	TypeError    = "error"
)

// Inbound is a client frame. An empty type means chat.
type Inbound struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// Outbound is a server frame
type Outbound struct {
	Type     string                    `json:"type"`
	Response string                    `json:"response,omitempty"`
	Messages []models.ConversationTurn `json:"messages,omitempty"`
	Error    *ErrorBody                `json:"error,omitempty"`
}

// ErrorBody mirrors the REST error body
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dialogue is the companion service as seen by the socket
type Dialogue interface {
	History(ctx context.Context, userID string) ([]models.ConversationTurn, error)
	Converse(ctx context.Context, userID, text string) (*models.ChatResponse, error)
}

// Hub tracks the open companion connections
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ActiveConnections returns the number of open sockets
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll closes every open socket, used on shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// Client is one open socket
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan Outbound
	done   chan struct{}
	hub    *Hub
	log    *logger.Logger
}

// Handler upgrades authenticated requests to companion sockets
type Handler struct {
	hub      *Hub
	dialogue Dialogue
	upgrader websocket.Upgrader
}

// NewHandler creates the handler. An empty allowedOrigins or "*" accepts any origin.
func NewHandler(hub *Hub, dialogue Dialogue, allowedOrigins []string) *Handler {
	return &Handler{
		hub:      hub,
		dialogue: dialogue,
		upgrader: websocket.Upgrader{
			CheckOrigin:      originChecker(allowedOrigins),
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Serve upgrades the connection and sends the current transcript first
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if userID == "" {
		c.Error(errors.NewUnauthorizedError("Authentication required"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.FromGin(c).Warn("Websocket upgrade failed", "error", err.Error())
		return
	}

	id := uuid.NewString()
	client := &Client{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan Outbound, 16),
		done:   make(chan struct{}),
		hub:    h.hub,
		log:    &logger.Logger{Logger: logger.FromGin(c).WithComponent("ws").With("client_id", id)},
	}
	h.hub.register(client)
	client.log.Info("Companion socket opened")

	// the request context ends when this handler returns
	ctx, cancel := context.WithCancel(logger.IntoContext(context.Background(), client.log))

	go client.writePump()
	go func() {
		defer cancel()
		client.readPump(ctx, h.dialogue)
	}()
}

func (c *Client) readPump(ctx context.Context, dialogue Dialogue) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.log.Info("Companion socket closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	history, err := dialogue.History(ctx, c.userID)
	if err != nil {
		c.sendError(err)
	} else {
		c.push(Outbound{Type: TypeHistory, Messages: history})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Companion socket read failed", "error", err.Error())
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendError(errors.NewValidationError("Frames must be JSON objects"))
			continue
		}

		switch in.Type {
		case TypePing:
			c.push(Outbound{Type: TypePong})
		case TypeChat, "":
			// turns are handled in order; the dialogue also locks per user
			resp, err := dialogue.Converse(ctx, c.userID, in.Message)
			if err != nil {
				c.sendError(err)
				continue
			}
			c.push(Outbound{Type: TypeResponse, Response: resp.Response, Messages: resp.Messages})
		default:
			c.sendError(errors.NewValidationError("Unknown frame type " + in.Type))
		}
	}
}

func (c *Client) sendError(err error) {
	appErr := errors.FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		c.log.LogError(err, "Companion socket request failed")
	}
	c.push(Outbound{Type: TypeError, Error: &ErrorBody{Code: appErr.Code, Message: appErr.Message}})
}

// push queues a frame unless the writer has already stopped
func (c *Client) push(frame Outbound) {
	select {
	case c.send <- frame:
	case <-c.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
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
