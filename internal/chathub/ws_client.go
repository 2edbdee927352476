package chathub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
	"devmatch/client/internal/socket"

	"github.com/gorilla/websocket"
)

// WebSocketClient is a Socket.IO connection that already passed socket.Accept.
type WebSocketClient struct {
	UserID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan []byte

	pingInterval time.Duration
	pongWait     time.Duration
	logger       *slog.Logger
}

func NewWebSocketClient(userID string, conn *websocket.Conn, hub *ManagerService, pingInterval, pingTimeout time.Duration) *WebSocketClient {
	return &WebSocketClient{
		UserID:       userID,
		Conn:         conn,
		Hub:          hub,
		Send:         make(chan []byte, config.SocketSendBuffer),
		pingInterval: pingInterval,
		pongWait:     pingInterval + pingTimeout,
		logger:       hub.logger.With(slog.String("user_id", userID)),
	}
}

func (c *WebSocketClient) GetUserID() string              { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- []byte { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the write pump, which then closes the socket.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.SocketMaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.pongWait))

		p, err := socket.Decode(frame)
		if err != nil {
			c.logger.Warn("bad frame", slog.String("error", err.Error()))
			continue
		}
		switch p.Type {
		case socket.PacketPong, socket.PacketNoop:
		case socket.PacketClose, socket.PacketDisconnect:
			return
		case socket.PacketEvent:
			c.handleEvent(p)
		}
	}
}

func (c *WebSocketClient) handleEvent(p socket.Packet) {
	ctx, cancel := context.WithTimeout(context.Background(), config.SocketWriteWait)
	defer cancel()

	var err error
	switch p.Event {
	case models.EventJoinChat:
		var payload models.JoinChat
		if err = json.Unmarshal(p.Data, &payload); err == nil {
			err = c.Hub.Join(ctx, c, payload)
		}
	case models.EventSendMessage:
		var payload models.SendMessage
		if err = json.Unmarshal(p.Data, &payload); err == nil {
			err = c.Hub.Send(ctx, c, payload)
		}
	default:
		c.logger.Debug("ignoring event", slog.String("event", p.Event))
		return
	}
	if err != nil {
		c.logger.Warn("event rejected", slog.String("event", p.Event), slog.String("error", err.Error()))
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	ping, _ := socket.Encode(socket.Packet{Type: socket.PacketPing})

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.SocketWriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.SocketWriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				return
			}
		}
	}
}
