package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Composer is the message input of a session.
type Composer struct {
	session *Session

	mu    sync.Mutex
	input string
}

func NewComposer(s *Session) *Composer {
	return &Composer{session: s}
}

func (c *Composer) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// CanSend is false for whitespace-only input.
func (c *Composer) CanSend() bool {
	return strings.TrimSpace(c.Input()) != ""
}

// Submit clears the input and sends it in the background. The returned
// channel yields the send result and may be ignored. It returns nil when
// there is nothing to send.
func (c *Composer) Submit(ctx context.Context) <-chan error {
	c.mu.Lock()
	text := c.input
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil
	}
	c.input = ""
	c.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		err := c.session.Send(ctx, text)
		if err != nil {
			c.session.logger.Error("send chat message", slog.String("error", err.Error()))
		}
		result <- err
	}()
	return result
}
