package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Envelope is one room event on its way to every hub instance.
type Envelope struct {
	RoomID  string          `json:"roomId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Broadcaster carries room events between hub instances.
type Broadcaster interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe delivers every published envelope until ctx is done, then
	// closes the channel.
	Subscribe(ctx context.Context) (<-chan Envelope, error)
}

// LocalBroadcaster fans out within one process.
type LocalBroadcaster struct {
	mu   sync.Mutex
	subs map[chan Envelope]struct{}
}

func NewLocalBroadcaster() *LocalBroadcaster {
	return &LocalBroadcaster{subs: make(map[chan Envelope]struct{})}
}

func (b *LocalBroadcaster) Publish(ctx context.Context, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *LocalBroadcaster) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	ch := make(chan Envelope, 256)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// RedisBroadcaster fans out through one Redis pub/sub channel, so several
// backend processes can serve the same rooms.
type RedisBroadcaster struct {
	Redis   *redis.Client
	Channel string
	logger  *slog.Logger
}

func NewRedisBroadcaster(rdb *redis.Client, channel string, logger *slog.Logger) *RedisBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroadcaster{Redis: rdb, Channel: channel, logger: logger.With(slog.String("component", "broadcast"))}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.Redis.Publish(ctx, b.Channel, raw).Err()
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	pubsub := b.Redis.Subscribe(ctx, b.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.Channel, err)
	}

	out := make(chan Envelope, 256)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("dropping bad broadcast", slog.String("error", err.Error()))
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
