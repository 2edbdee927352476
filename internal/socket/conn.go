// Package socket is a minimal Socket.IO client (and handshake helper for
// servers) over gorilla/websocket. It speaks Engine.IO v4 with the websocket
// transport only and uses the default namespace.
package socket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"devmatch/client/internal/config"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned when emitting on a disconnected connection.
var ErrClosed = errors.New("socket: connection closed")

// Handler receives the payload of an inbound event.
type Handler func(data json.RawMessage)

// Conn is one Socket.IO connection. Handlers run on the read goroutine in
// arrival order; a slow handler delays the events behind it.
type Conn struct {
	SID string

	ws     *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	readTimeout time.Duration

	mu       sync.RWMutex
	handlers map[string][]Handler

	done      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	graceful  bool
}

func newConn(ws *websocket.Conn, sid string, readTimeout time.Duration, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		SID:         sid,
		ws:          ws,
		send:        make(chan []byte, config.SocketSendBuffer),
		logger:      logger.With(slog.String("component", "socket"), slog.String("sid", sid)),
		readTimeout: readTimeout,
		handlers:    make(map[string][]Handler),
		done:        make(chan struct{}),
		closed:      make(chan struct{}),
	}
}

func (c *Conn) run() {
	go c.writePump()
	go c.readPump()
}

// On registers h for event. Multiple handlers for one event run in registration order.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Emit queues an event for writing. It does not wait for delivery.
func (c *Conn) Emit(event string, payload any) error {
	p, err := Event(event, payload)
	if err != nil {
		return err
	}
	frame, err := Encode(p)
	if err != nil {
		return err
	}
	return c.enqueue(frame)
}

func (c *Conn) enqueue(frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Done is closed once the connection is shutting down, for any reason.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Disconnect leaves the namespace and closes the transport. It is idempotent
// and returns once the transport is closed.
func (c *Conn) Disconnect() error {
	c.shutdown(true)
	<-c.closed
	return nil
}

func (c *Conn) shutdown(graceful bool) {
	c.closeOnce.Do(func() {
		c.graceful = graceful
		close(c.done)
	})
}

func (c *Conn) readPump() {
	defer c.shutdown(false)

	c.ws.SetReadLimit(config.SocketMaxMessageSize)
	for {
		if c.readTimeout > 0 {
			c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					c.logger.Warn("socket read failed", slog.String("error", err.Error()))
				}
			}
			return
		}

		p, err := Decode(frame)
		if err != nil {
			c.logger.Warn("dropping malformed frame", slog.String("error", err.Error()))
			continue
		}

		switch p.Type {
		case PacketPing:
			pong, _ := Encode(Packet{Type: PacketPong})
			if err := c.enqueue(pong); err != nil {
				return
			}
		case PacketEvent:
			c.dispatch(p)
		case PacketDisconnect, PacketClose:
			c.logger.Info("server closed the connection")
			return
		}
	}
}

func (c *Conn) dispatch(p Packet) {
	c.mu.RLock()
	handlers := c.handlers[p.Event]
	c.mu.RUnlock()
	if len(handlers) == 0 {
		c.logger.Debug("no handler for event", slog.String("event", p.Event))
		return
	}
	for _, h := range handlers {
		h(p.Data)
	}
}

func (c *Conn) writePump() {
	defer func() {
		c.ws.Close()
		close(c.closed)
	}()

	for {
		select {
		case frame := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(config.SocketWriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn("socket write failed", slog.String("error", err.Error()))
				c.shutdown(false)
				return
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(config.SocketWriteWait))
			c.flush()
			if c.graceful {
				leave, _ := Encode(Packet{Type: PacketDisconnect})
				c.ws.WriteMessage(websocket.TextMessage, leave)
			}
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes frames queued before shutdown, so an emit followed by an
// immediate Disconnect still reaches the server.
func (c *Conn) flush() {
	for {
		select {
		case frame := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		default:
			return
		}
	}
}
