package chathub

// Client is one realtime connection registered with the hub. It abstracts the
// transport so the hub can be tested without sockets.
type Client interface {
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() string

	// GetSendChannel returns the channel of encoded frames the hub writes to.
	GetSendChannel() chan<- []byte

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the write pump. The hub calls it exactly once, after the
	// client is unregistered.
	Close()
}
