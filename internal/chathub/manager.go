// Package chathub is the realtime side of the dev backend: it tracks which
// connections sit in which room and fans chat events out to them.
package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"devmatch/client/internal/models"
	"devmatch/client/internal/socket"
	"devmatch/client/internal/storage"
)

var (
	ErrForbidden   = errors.New("chathub: payload user does not match the connection")
	ErrEmptyText   = errors.New("chathub: message text is empty")
	ErrEmptyTarget = errors.New("chathub: target user is missing")

	errHubStopped = errors.New("chathub: hub stopped")
)

type joinRequest struct {
	client Client
	roomID string
}

// ManagerService owns room membership. Membership changes go through its
// channels and are applied by Run.
type ManagerService struct {
	Storage     storage.Storage
	Broadcaster Broadcaster

	RegisterCh   chan Client
	UnregisterCh chan Client
	joinCh       chan joinRequest
	done         chan struct{}

	mu      sync.RWMutex
	clients map[Client]string
	rooms   map[string]map[Client]struct{}

	logger *slog.Logger
	now    func() time.Time
}

func NewManagerService(s storage.Storage, b Broadcaster, logger *slog.Logger) *ManagerService {
	if logger == nil {
		logger = slog.Default()
	}
	if b == nil {
		b = NewLocalBroadcaster()
	}
	return &ManagerService{
		Storage:      s,
		Broadcaster:  b,
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		joinCh:       make(chan joinRequest),
		done:         make(chan struct{}),
		clients:      make(map[Client]string),
		rooms:        make(map[string]map[Client]struct{}),
		logger:       logger.With(slog.String("component", "chathub")),
		now:          time.Now,
	}
}

// Run applies membership changes and delivers broadcasts until ctx is done.
func (m *ManagerService) Run(ctx context.Context) error {
	events, err := m.Broadcaster.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer func() {
		close(m.done)
		m.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-m.RegisterCh:
			m.mu.Lock()
			m.clients[c] = ""
			m.mu.Unlock()
			m.logger.Debug("client registered", slog.String("user_id", c.GetUserID()))

		case c := <-m.UnregisterCh:
			m.drop(c)

		case j := <-m.joinCh:
			m.mu.Lock()
			if old, ok := m.clients[j.client]; ok {
				m.leaveLocked(j.client, old)
				m.clients[j.client] = j.roomID
				if m.rooms[j.roomID] == nil {
					m.rooms[j.roomID] = make(map[Client]struct{})
				}
				m.rooms[j.roomID][j.client] = struct{}{}
			}
			m.mu.Unlock()

		case env, ok := <-events:
			if !ok {
				return nil
			}
			m.deliver(env)
		}
	}
}

// Register hands c to the running hub. It reports false once the hub stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes c and closes it. It is a no-op once the hub stopped.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

func (m *ManagerService) leaveLocked(c Client, roomID string) {
	if roomID == "" {
		return
	}
	delete(m.rooms[roomID], c)
	if len(m.rooms[roomID]) == 0 {
		delete(m.rooms, roomID)
	}
}

func (m *ManagerService) drop(c Client) {
	m.mu.Lock()
	roomID, ok := m.clients[c]
	if ok {
		m.leaveLocked(c, roomID)
		delete(m.clients, c)
	}
	m.mu.Unlock()
	if ok {
		c.Close()
		m.logger.Debug("client unregistered", slog.String("user_id", c.GetUserID()))
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[Client]string)
	m.rooms = make(map[string]map[Client]struct{})
	m.mu.Unlock()
	for c := range clients {
		c.Close()
	}
}

func (m *ManagerService) deliver(env Envelope) {
	p, err := socket.Event(env.Event, env.Payload)
	if err != nil {
		m.logger.Warn("bad broadcast", slog.String("error", err.Error()))
		return
	}
	frame, err := socket.Encode(p)
	if err != nil {
		m.logger.Warn("bad broadcast", slog.String("error", err.Error()))
		return
	}

	m.mu.RLock()
	var slow []Client
	for c := range m.rooms[env.RoomID] {
		select {
		case c.GetSendChannel() <- frame:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		m.logger.Warn("dropping slow client", slog.String("user_id", c.GetUserID()))
		m.drop(c)
	}
}

// Members lists the users connected to roomID.
func (m *ManagerService) Members(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for c := range m.rooms[roomID] {
		out = append(out, c.GetUserID())
	}
	return out
}

// Join puts c into the room shared with the payload's target.
func (m *ManagerService) Join(ctx context.Context, c Client, p models.JoinChat) error {
	if p.LoggedInUserID != c.GetUserID() {
		return ErrForbidden
	}
	if p.TargetUserID == "" {
		return ErrEmptyTarget
	}
	room := models.NewChatRoom(p.LoggedInUserID, p.TargetUserID, m.now())
	if err := m.Storage.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	select {
	case m.joinCh <- joinRequest{client: c, roomID: room.RoomID}:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return errHubStopped
	}
	m.logger.Info("joined room",
		slog.String("user_id", c.GetUserID()),
		slog.String("first_name", p.FirstName),
		slog.String("room", room.RoomID))
	return nil
}

// Send stores the message and broadcasts it to the room. The sender does not
// need to be joined.
func (m *ManagerService) Send(ctx context.Context, c Client, p models.SendMessage) error {
	if p.LoggedInUserID != c.GetUserID() {
		return ErrForbidden
	}
	if p.TargetUserID == "" {
		return ErrEmptyTarget
	}
	if strings.TrimSpace(p.Text) == "" {
		return ErrEmptyText
	}

	room := models.NewChatRoom(p.LoggedInUserID, p.TargetUserID, m.now())
	if err := m.Storage.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	history := &models.ChatHistory{RoomID: room.RoomID, SenderID: p.LoggedInUserID, Text: p.Text}
	if err := m.Storage.SaveMessage(ctx, history); err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	payload, err := json.Marshal(models.MessageReceived{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Text:      p.Text,
		SenderID:  p.LoggedInUserID,
	})
	if err != nil {
		return err
	}
	return m.Broadcaster.Publish(ctx, Envelope{
		RoomID:  room.RoomID,
		Event:   models.EventMessageReceived,
		Payload: payload,
	})
}
