package chat

import (
	"net/http"

	"github.com/ensp1re/Gigmee/internal/ws"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketHandler exposes the chat service's socket endpoint. The gateway's
// relay client connects here and receives every message event the service
// broadcasts; inbound frames are not expected and are discarded.
type SocketHandler struct {
	hub *ws.Hub
	log *logger.Logger
}

func NewSocketHandler(hub *ws.Hub, log *logger.Logger) *SocketHandler {
	return &SocketHandler{hub: hub, log: log}
}

func (h *SocketHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorf("chat: websocket upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(conn, "")
	h.hub.Register(client)
	go client.WriteLoop(c.Request.Context())
	h.log.Infof("chat: relay client %s connected", client.ID)

	defer h.hub.Unregister(client)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Infof("chat: relay client %s disconnected", client.ID)
			return
		}
	}
}
