package chathub_test

import (
	"sync"

	"devmatch/client/internal/chathub"
)

var _ chathub.Client = (*MockClient)(nil)

type MockClient struct {
	userID string
	send   chan []byte

	mu     sync.Mutex
	closed int
}

func newMockClient(userID string, buffer int) *MockClient {
	return &MockClient{userID: userID, send: make(chan []byte, buffer)}
}

func (c *MockClient) GetUserID() string              { return c.userID }
func (c *MockClient) GetSendChannel() chan<- []byte { return c.send }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *MockClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
