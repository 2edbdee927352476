package socket

import (
	"encoding/json"
	"fmt"
	"time"

	"devmatch/client/internal/config"

	"github.com/gorilla/websocket"
)

// Accept runs the server side of the handshake on an upgraded connection:
// it sends the open packet, waits for the client's namespace connect and
// acknowledges it. The caller owns ws afterwards.
func Accept(ws *websocket.Conn, sid string, pingInterval, pingTimeout time.Duration) error {
	deadline := time.Now().Add(config.SocketHandshakeWait)
	ws.SetReadDeadline(deadline)
	ws.SetWriteDeadline(deadline)
	defer func() {
		ws.SetReadDeadline(time.Time{})
		ws.SetWriteDeadline(time.Time{})
	}()

	body, err := json.Marshal(OpenInfo{
		SID:          sid,
		Upgrades:     []string{},
		PingInterval: int(pingInterval / time.Millisecond),
		PingTimeout:  int(pingTimeout / time.Millisecond),
		MaxPayload:   config.SocketMaxMessageSize,
	})
	if err != nil {
		return err
	}
	if err := writePacket(ws, Packet{Type: PacketOpen, Data: body}); err != nil {
		return fmt.Errorf("send open packet: %w", err)
	}

	for {
		p, err := readPacket(ws)
		if err != nil {
			return fmt.Errorf("read connect: %w", err)
		}
		if p.Type == PacketConnect {
			break
		}
	}

	ack, err := json.Marshal(ConnectInfo{SID: sid})
	if err != nil {
		return err
	}
	if err := writePacket(ws, Packet{Type: PacketConnect, Data: ack}); err != nil {
		return fmt.Errorf("send connect ack: %w", err)
	}
	return nil
}

func writePacket(ws *websocket.Conn, p Packet) error {
	frame, err := Encode(p)
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, frame)
}
