package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ensp1re/Gigmee/internal/ws"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Inbound events accepted from public clients.
const (
	EventGetLoggedInUsers   = "getLoggedInUsers"
	EventLoggedInUsers      = "loggedInUsers"
	EventRemoveLoggedInUser = "removeLoggedInUser"
	EventCategory           = "category"
)

// EventOnline is broadcast to every public client after any presence change.
const EventOnline = "online"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketHandler accepts public browser connections and serves the presence
// events. Every presence mutation rebroadcasts the full list under "online"
// to all connected clients.
type SocketHandler struct {
	hub   *ws.Hub
	cache *Cache
	auth  *Authorizer
	log   *logger.Logger
}

func NewSocketHandler(hub *ws.Hub, cache *Cache, auth *Authorizer, log *logger.Logger) *SocketHandler {
	return &SocketHandler{hub: hub, cache: cache, auth: auth, log: log}
}

// Handle upgrades the connection and runs the client's read loop.
func (h *SocketHandler) Handle(c *gin.Context) {
	username, err := h.auth.VerifyToken(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid session token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("gateway: websocket upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(conn, username)
	h.hub.Register(client)
	go client.WriteLoop(c.Request.Context())

	h.readLoop(c.Request.Context(), client)
}

func (h *SocketHandler) readLoop(ctx context.Context, client *ws.Client) {
	defer h.hub.Unregister(client)

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var evt ws.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.log.Warnf("gateway: dropping malformed frame from %s: %v", client.ID, err)
			continue
		}
		h.dispatch(ctx, evt)
	}
}

func (h *SocketHandler) dispatch(ctx context.Context, evt ws.Event) {
	switch evt.Event {
	case EventGetLoggedInUsers:
		users := h.cache.GetLoggedInUsers(ctx, LoggedInUsersKey)
		h.broadcastOnline(users)
	case EventLoggedInUsers:
		var username string
		if err := json.Unmarshal(evt.Data, &username); err != nil {
			h.log.Warnf("gateway: invalid loggedInUsers payload: %v", err)
			return
		}
		users := h.cache.SaveLoggedInUser(ctx, LoggedInUsersKey, username)
		h.broadcastOnline(users)
	case EventRemoveLoggedInUser:
		var username string
		if err := json.Unmarshal(evt.Data, &username); err != nil {
			h.log.Warnf("gateway: invalid removeLoggedInUser payload: %v", err)
			return
		}
		users := h.cache.DeleteLoggedInUser(ctx, LoggedInUsersKey, username)
		h.broadcastOnline(users)
	case EventCategory:
		var payload struct {
			Category string `json:"category"`
			Username string `json:"username"`
		}
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			h.log.Warnf("gateway: invalid category payload: %v", err)
			return
		}
		h.cache.SaveUserSelectedCategory(ctx, "selectedCategories:"+payload.Username, payload.Category)
	default:
		h.log.Warnf("gateway: unknown socket event %q", evt.Event)
	}
}

func (h *SocketHandler) broadcastOnline(users []string) {
	if err := h.hub.BroadcastEvent(EventOnline, users); err != nil {
		h.log.Errorf("gateway: failed to broadcast online list: %v", err)
	}
}
