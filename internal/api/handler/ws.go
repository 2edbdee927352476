package handler

import (
	"log/slog"
	"net/http"

	"devmatch/client/internal/chathub"
	"devmatch/client/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeSocket upgrades an authenticated request to a Socket.IO connection and
// hands it to the hub.
func (h *Handler) ServeSocket(c *gin.Context) {
	if c.Query("transport") != "websocket" {
		fail(c, http.StatusBadRequest, "only the websocket transport is supported")
		return
	}
	userID := currentUser(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied.
		return
	}
	if err := socket.Accept(ws, uuid.NewString(), h.PingInterval, h.PingTimeout); err != nil {
		h.logger.Warn("socket handshake failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		ws.Close()
		return
	}

	client := chathub.NewWebSocketClient(userID, ws, h.Hub, h.PingInterval, h.PingTimeout)
	if !h.Hub.Register(client) {
		ws.Close()
		return
	}
	client.Run()
}
