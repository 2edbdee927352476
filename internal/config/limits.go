package config

import "time"

const (
	// Feed paging
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 50
	FirstPage    = 1

	// HTTP
	DefaultHTTPTimeout = 15 * time.Second

	// Socket
	SocketWriteWait      = 10 * time.Second
	SocketHandshakeWait  = 10 * time.Second
	SocketMaxMessageSize = 64 * 1024
	SocketSendBuffer     = 64

	// Dev backend
	SessionTTL       = 7 * 24 * time.Hour
	SessionCookie    = "token"
	PingInterval     = 25 * time.Second
	PingTimeout      = 20 * time.Second
	BroadcastChannel = "chat:broadcast"
)
