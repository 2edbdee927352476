package chat_test

import (
	"context"
	"encoding/json"
	"sync"

	"devmatch/client/internal/chat"
	"devmatch/client/internal/models"
	"devmatch/client/internal/socket"

	"github.com/stretchr/testify/mock"
)

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) ChatHistory(ctx context.Context, target string) ([]models.HistoryRecord, error) {
	args := m.Called(ctx, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryRecord), args.Error(1)
}

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context) (chat.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(chat.Connection), args.Error(1)
}

type emitted struct {
	Event   string
	Payload any
}

// fakeConn records emits and lets tests push inbound events.
type fakeConn struct {
	mu          sync.Mutex
	handlers    map[string][]socket.Handler
	emits       []emitted
	disconnects int
	done        chan struct{}
	once        sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: map[string][]socket.Handler{}, done: make(chan struct{})}
}

func (c *fakeConn) On(event string, h socket.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

func (c *fakeConn) Emit(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return socket.ErrClosed
	default:
	}
	c.emits = append(c.emits, emitted{event, payload})
	return nil
}

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	c.disconnects++
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

// drop simulates the server closing the transport.
func (c *fakeConn) drop() { c.once.Do(func() { close(c.done) }) }

func (c *fakeConn) deliver(ev models.MessageReceived) {
	raw, _ := json.Marshal(ev)
	c.mu.Lock()
	hs := append([]socket.Handler(nil), c.handlers[models.EventMessageReceived]...)
	c.mu.Unlock()
	for _, h := range hs {
		h(raw)
	}
}

func (c *fakeConn) handlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}

func (c *fakeConn) Emits() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.emits...)
}

func (c *fakeConn) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// gatedConnector blocks each Connect until its gate for that call index
// receives a connection, so tests can overlap joins.
type gatedConnector struct {
	calls chan int
	gates []chan chat.Connection

	mu sync.Mutex
	n  int
}

func newGatedConnector(n int) *gatedConnector {
	g := &gatedConnector{calls: make(chan int, n)}
	for range n {
		g.gates = append(g.gates, make(chan chat.Connection, 1))
	}
	return g
}

func (g *gatedConnector) Connect(ctx context.Context) (chat.Connection, error) {
	g.mu.Lock()
	i := g.n
	g.n++
	g.mu.Unlock()
	g.calls <- i
	select {
	case c := <-g.gates[i]:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
