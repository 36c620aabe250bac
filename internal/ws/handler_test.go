package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aura/backend/internal/models"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDialogue struct {
	mu    sync.Mutex
	turns map[string][]models.ConversationTurn
}

func (d *memoryDialogue) History(_ context.Context, userID string) ([]models.ConversationTurn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.ConversationTurn{}, d.turns[userID]...), nil
}

func (d *memoryDialogue) Converse(_ context.Context, userID, text string) (*models.ChatResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError("Message is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	reply := "echo: " + text
	d.turns[userID] = append(d.turns[userID],
		models.ConversationTurn{Role: models.TurnUser, Content: text},
		models.ConversationTurn{Role: models.TurnAssistant, Content: reply},
	)
	return &models.ChatResponse{Response: reply, Messages: d.turns[userID]}, nil
}

func startServer(t *testing.T, hub *Hub, dialogue Dialogue) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.GET("/ws/companion", func(c *gin.Context) {
		if user := c.Query("as"); user != "" {
			c.Set(middleware.UserIDKey, user)
		}
		c.Next()
	}, NewHandler(hub, dialogue, []string{"*"}).Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/companion"
}

func readFrame(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestCompanionSocket(t *testing.T) {
	hub := NewHub()
	dialogue := &memoryDialogue{turns: map[string][]models.ConversationTurn{
		"u1": {{Role: models.TurnUser, Content: "earlier"}, {Role: models.TurnAssistant, Content: "reply"}},
	}}
	url := startServer(t, hub, dialogue)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?as=u1", nil)
	require.NoError(t, err)
	defer conn.Close()

	history := readFrame(t, conn)
	assert.Equal(t, TypeHistory, history.Type)
	assert.Len(t, history.Messages, 2)
	assert.Equal(t, 1, hub.ActiveConnections())

	require.NoError(t, conn.WriteJSON(Inbound{Message: "hello"}))
	resp := readFrame(t, conn)
	assert.Equal(t, TypeResponse, resp.Type)
	assert.Equal(t, "echo: hello", resp.Response)
	assert.Len(t, resp.Messages, 4)

	require.NoError(t, conn.WriteJSON(Inbound{Type: TypePing}))
	assert.Equal(t, TypePong, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Inbound{Message: " "}))
	bad := readFrame(t, conn)
	assert.Equal(t, TypeError, bad.Type)
	require.NotNil(t, bad.Error)
	assert.Equal(t, errors.CodeValidation, bad.Error.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, TypeError, readFrame(t, conn).Type)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ActiveConnections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCompanionSocketRequiresUser(t *testing.T) {
	url := startServer(t, NewHub(), &memoryDialogue{turns: map[string][]models.ConversationTurn{}})

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})

	req := httptest.NewRequest("GET", "/ws/companion", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
	assert.True(t, originChecker([]string{"*"})(req))
}
