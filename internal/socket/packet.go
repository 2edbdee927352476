package socket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// PacketType identifies an Engine.IO packet, or a Socket.IO packet carried in
// an Engine.IO message. Only the default namespace is used.
type PacketType int

const (
	PacketOpen PacketType = iota
	PacketClose
	PacketPing
	PacketPong
	PacketNoop
	PacketConnect
	PacketDisconnect
	PacketEvent
	PacketConnectError
)

var packetNames = map[PacketType]string{
	PacketOpen:         "open",
	PacketClose:        "close",
	PacketPing:         "ping",
	PacketPong:         "pong",
	PacketNoop:         "noop",
	PacketConnect:      "connect",
	PacketDisconnect:   "disconnect",
	PacketEvent:        "event",
	PacketConnectError: "connect_error",
}

func (t PacketType) String() string {
	if name, ok := packetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("packet(%d)", int(t))
}

// Packet is one decoded text frame.
type Packet struct {
	Type PacketType
	// Event is set for PacketEvent.
	Event string
	// Data is the JSON payload: the open/connect body, or the first event argument.
	Data json.RawMessage
}

// ErrMalformedPacket is returned for frames that are not valid packets.
var ErrMalformedPacket = errors.New("malformed packet")

// OpenInfo is the body of the Engine.IO open packet.
type OpenInfo struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// ConnectInfo is the body of the Socket.IO connect acknowledgment.
type ConnectInfo struct {
	SID string `json:"sid"`
}

// Event builds an event packet. payload is marshalled to JSON.
func Event(name string, payload any) (Packet, error) {
	if name == "" {
		return Packet{}, fmt.Errorf("%w: empty event name", ErrMalformedPacket)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Packet{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Packet{Type: PacketEvent, Event: name, Data: raw}, nil
}

// Encode renders p as a text frame.
func Encode(p Packet) ([]byte, error) {
	var buf bytes.Buffer
	switch p.Type {
	case PacketOpen:
		buf.WriteByte('0')
		buf.Write(p.Data)
	case PacketClose:
		buf.WriteByte('1')
	case PacketPing:
		buf.WriteByte('2')
	case PacketPong:
		buf.WriteByte('3')
	case PacketNoop:
		buf.WriteByte('6')
	case PacketConnect:
		buf.WriteString("40")
		buf.Write(p.Data)
	case PacketDisconnect:
		buf.WriteString("41")
	case PacketEvent:
		name, err := json.Marshal(p.Event)
		if err != nil {
			return nil, err
		}
		buf.WriteString("42[")
		buf.Write(name)
		if len(p.Data) > 0 {
			buf.WriteByte(',')
			buf.Write(p.Data)
		}
		buf.WriteByte(']')
	case PacketConnectError:
		buf.WriteString("44")
		buf.Write(p.Data)
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", ErrMalformedPacket, p.Type)
	}
	return buf.Bytes(), nil
}

// Decode parses a text frame.
func Decode(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return Packet{}, fmt.Errorf("%w: empty frame", ErrMalformedPacket)
	}
	body := frame[1:]
	switch frame[0] {
	case '0':
		return Packet{Type: PacketOpen, Data: json.RawMessage(body)}, nil
	case '1':
		return Packet{Type: PacketClose}, nil
	case '2':
		return Packet{Type: PacketPing}, nil
	case '3':
		return Packet{Type: PacketPong}, nil
	case '6':
		return Packet{Type: PacketNoop}, nil
	case '4':
		return decodeMessage(body)
	}
	return Packet{}, fmt.Errorf("%w: unknown engine type %q", ErrMalformedPacket, frame[0])
}

func decodeMessage(body []byte) (Packet, error) {
	if len(body) == 0 {
		return Packet{}, fmt.Errorf("%w: empty message", ErrMalformedPacket)
	}
	kind, rest := body[0], skipNamespace(body[1:])
	switch kind {
	case '0':
		return Packet{Type: PacketConnect, Data: json.RawMessage(rest)}, nil
	case '1':
		return Packet{Type: PacketDisconnect}, nil
	case '4':
		return Packet{Type: PacketConnectError, Data: json.RawMessage(rest)}, nil
	case '2':
		return decodeEvent(skipAckID(rest))
	}
	return Packet{}, fmt.Errorf("%w: unsupported socket type %q", ErrMalformedPacket, kind)
}

func decodeEvent(body []byte) (Packet, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(body, &args); err != nil {
		return Packet{}, fmt.Errorf("%w: event body: %v", ErrMalformedPacket, err)
	}
	if len(args) == 0 {
		return Packet{}, fmt.Errorf("%w: event without name", ErrMalformedPacket)
	}
	p := Packet{Type: PacketEvent}
	if err := json.Unmarshal(args[0], &p.Event); err != nil || p.Event == "" {
		return Packet{}, fmt.Errorf("%w: event name", ErrMalformedPacket)
	}
	if len(args) > 1 {
		p.Data = args[1]
	}
	return p, nil
}

// skipNamespace drops a "/nsp," prefix.
func skipNamespace(b []byte) []byte {
	if len(b) == 0 || b[0] != '/' {
		return b
	}
	if i := bytes.IndexByte(b, ','); i >= 0 {
		return b[i+1:]
	}
	return nil
}

// skipAckID drops a leading numeric ack id.
func skipAckID(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	return b[i:]
}
