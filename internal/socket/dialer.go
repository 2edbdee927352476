package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"devmatch/client/internal/config"

	"github.com/gorilla/websocket"
)

// Dialer opens Socket.IO connections to the chat backend. Each Connect
// creates an independent connection; nothing is pooled or shared.
// A dropped connection is not re-established.
type Dialer struct {
	// BaseURL is the API origin, e.g. http://localhost:7777.
	BaseURL string
	// Path is the upgrade path, e.g. /socket.io/ or /api/socket.io/.
	Path string
	// Jar supplies the session cookie.
	Jar http.CookieJar

	WS     *websocket.Dialer
	Logger *slog.Logger
}

// NewDialer builds a Dialer for cfg. The upgrade path follows the deployment
// environment unless cfg overrides it.
func NewDialer(cfg config.Client, jar http.CookieJar, logger *slog.Logger) *Dialer {
	path := cfg.SocketPath
	if path == "" {
		path = config.DefaultSocketPath(cfg.Env)
	}
	return &Dialer{
		BaseURL: cfg.BaseURL,
		Path:    path,
		Jar:     jar,
		Logger:  logger,
	}
}

// Endpoint is the websocket URL Connect dials.
func (d *Dialer) Endpoint() (string, error) {
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	path := d.Path
	if path == "" {
		path = "/socket.io/"
	}
	u.Path = path
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// Connect dials the endpoint and completes the Engine.IO and Socket.IO
// handshakes. The returned Conn is ready for Emit and On.
func (d *Dialer) Connect(ctx context.Context) (*Conn, error) {
	endpoint, err := d.Endpoint()
	if err != nil {
		return nil, err
	}

	ws := d.WS
	if ws == nil {
		ws = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.SocketHandshakeWait,
		}
	}
	if d.Jar != nil && ws.Jar == nil {
		copied := *ws
		copied.Jar = d.Jar
		ws = &copied
	}

	conn, resp, err := ws.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	deadline := time.Now().Add(config.SocketHandshakeWait)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	open, sid, err := clientHandshake(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	readTimeout := time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	c := newConn(conn, sid, readTimeout, d.Logger)
	c.run()
	c.logger.Debug("socket connected", slog.String("endpoint", endpoint))
	return c, nil
}

func clientHandshake(conn *websocket.Conn) (OpenInfo, string, error) {
	var open OpenInfo
	p, err := readPacket(conn)
	if err != nil {
		return open, "", fmt.Errorf("read open packet: %w", err)
	}
	if p.Type != PacketOpen {
		return open, "", fmt.Errorf("%w: expected open, got %s", ErrMalformedPacket, p.Type)
	}
	if err := json.Unmarshal(p.Data, &open); err != nil {
		return open, "", fmt.Errorf("%w: open body: %v", ErrMalformedPacket, err)
	}

	connect, _ := Encode(Packet{Type: PacketConnect})
	if err := conn.WriteMessage(websocket.TextMessage, connect); err != nil {
		return open, "", fmt.Errorf("send connect: %w", err)
	}

	for {
		p, err := readPacket(conn)
		if err != nil {
			return open, "", fmt.Errorf("read connect ack: %w", err)
		}
		switch p.Type {
		case PacketConnect:
			var info ConnectInfo
			if len(p.Data) > 0 {
				if err := json.Unmarshal(p.Data, &info); err != nil {
					return open, "", fmt.Errorf("%w: connect body: %v", ErrMalformedPacket, err)
				}
			}
			if info.SID == "" {
				info.SID = open.SID
			}
			return open, info.SID, nil
		case PacketConnectError:
			return open, "", fmt.Errorf("socket: connect refused: %s", string(p.Data))
		case PacketPing:
			pong, _ := Encode(Packet{Type: PacketPong})
			if err := conn.WriteMessage(websocket.TextMessage, pong); err != nil {
				return open, "", err
			}
		}
	}
}

func readPacket(conn *websocket.Conn) (Packet, error) {
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return Packet{}, err
	}
	return Decode(frame)
}
