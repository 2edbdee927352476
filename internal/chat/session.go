// Package chat runs one conversation with a connection: history load, room
// join, live receipt and sending.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
	"devmatch/client/internal/socket"
)

var (
	ErrEmptyMessage = errors.New("chat: message is empty")
	ErrNotJoined    = errors.New("chat: not joined")
	ErrNoIdentity   = errors.New("chat: no signed-in user")
	ErrClosed       = errors.New("chat: session closed")
)

// HistorySource loads the stored messages of a conversation.
type HistorySource interface {
	ChatHistory(ctx context.Context, targetUserID string) ([]models.HistoryRecord, error)
}

// Connection is a realtime connection as the session uses it.
type Connection interface {
	On(event string, h socket.Handler)
	Emit(event string, payload any) error
	Disconnect() error
	Done() <-chan struct{}
}

// Connector opens realtime connections.
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
}

// ConnectFunc adapts a function to Connector.
type ConnectFunc func(ctx context.Context) (Connection, error)

func (f ConnectFunc) Connect(ctx context.Context) (Connection, error) { return f(ctx) }

// SocketConnector dials with d.
func SocketConnector(d *socket.Dialer) Connector {
	return ConnectFunc(func(ctx context.Context) (Connection, error) {
		c, err := d.Connect(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// State is the session lifecycle.
type State int

const (
	StateUnjoined State = iota
	StateHistoryLoading
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateHistoryLoading:
		return "history-loading"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is one chat with a target user. It holds at most one listening
// connection, and so at most one joined room.
type Session struct {
	history   HistorySource
	connector Connector
	mode      config.SendMode
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    State
	target   string
	self     models.Profile
	gen      uint64 // bumped on retarget and close; guards history
	joinSeq  uint64 // bumped per join attempt; guards connections
	joining  bool
	conn     Connection
	loaded   bool
	loading  bool // a history fetch for the current gen is in flight
	messages []models.Message
	seq      uint64
	changed  chan struct{}
}

// NewSession builds an unjoined session with target. mode selects which
// connection sends go out on.
func NewSession(target string, history HistorySource, connector Connector, mode config.SendMode, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = config.SendOnSession
	}
	return &Session{
		history:   history,
		connector: connector,
		mode:      mode,
		logger:    logger.With(slog.String("component", "chat")),
		now:       time.Now,
		target:    target,
		changed:   make(chan struct{}, 1),
	}
}

// Changed receives a value whenever messages or state change. Signals coalesce.
func (s *Session) Changed() <-chan struct{} { return s.changed }

func (s *Session) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Start loads the conversation history once per target. History is placed
// before any live messages already received. A call made while a fetch is in
// flight returns nil without fetching again. A response for a conversation the
// session has since left is ignored.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.loaded || s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	gen, target := s.gen, s.target
	if s.conn == nil {
		s.state = StateHistoryLoading
	}
	s.mu.Unlock()
	s.notify()

	records, err := s.history.ChatHistory(ctx, target)

	s.mu.Lock()
	defer s.notify()
	defer s.mu.Unlock()
	if gen != s.gen || s.state == StateClosed {
		s.logger.Debug("dropping late history", slog.String("target", target))
		return nil
	}
	s.loading = false
	s.state = s.settled()
	if err != nil {
		s.logger.Error("load chat history",
			slog.String("target", target),
			slog.String("error", err.Error()))
		return fmt.Errorf("load history: %w", err)
	}

	now := s.now()
	history := make([]models.Message, 0, len(records)+len(s.messages))
	for _, r := range records {
		m := models.FromHistory(r)
		m.ReceivedAt = now
		history = append(history, m)
	}
	s.messages = append(history, s.messages...)
	for i := range s.messages {
		s.messages[i].Seq = uint64(i + 1)
	}
	s.seq = uint64(len(s.messages))
	s.loaded = true
	return nil
}

func (s *Session) settled() State {
	if s.conn != nil {
		return StateJoined
	}
	return StateUnjoined
}

// Identify joins the room as self. Without an id nothing is joined.
// Identifying again as the same user is a no-op; a different user replaces
// the connection.
func (s *Session) Identify(ctx context.Context, self models.Profile) error {
	if self.ID == "" {
		return ErrNoIdentity
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.self.ID == self.ID && (s.conn != nil || s.joining) {
		s.self = self
		s.mu.Unlock()
		return nil
	}
	old := s.conn
	s.conn = nil
	s.self = self
	s.joinSeq++
	js, target := s.joinSeq, s.target
	s.joining = true
	s.mu.Unlock()

	if old != nil {
		old.Disconnect()
	}

	conn, err := s.connector.Connect(ctx)

	s.mu.Lock()
	if js != s.joinSeq || s.state == StateClosed {
		s.mu.Unlock()
		if conn != nil {
			conn.Disconnect()
		}
		return nil
	}
	s.joining = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("connect chat socket", slog.String("error", err.Error()))
		return fmt.Errorf("connect: %w", err)
	}

	conn.On(models.EventMessageReceived, s.receiver(js))
	join := models.JoinChat{FirstName: self.FirstName, LoggedInUserID: self.ID, TargetUserID: target}
	if err := conn.Emit(models.EventJoinChat, join); err != nil {
		s.mu.Unlock()
		conn.Disconnect()
		return fmt.Errorf("join: %w", err)
	}
	s.conn = conn
	s.state = StateJoined
	s.mu.Unlock()
	s.notify()

	s.logger.Info("joined chat",
		slog.String("room", models.RoomID(self.ID, target)),
		slog.String("target", target))
	go s.watch(js, conn)
	return nil
}

// watch drops a connection the server closed.
func (s *Session) watch(js uint64, conn Connection) {
	<-conn.Done()
	s.mu.Lock()
	if s.conn != conn || js != s.joinSeq {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	if s.state != StateClosed {
		s.state = StateUnjoined
	}
	s.mu.Unlock()
	s.logger.Warn("chat connection lost", slog.String("target", s.Target()))
	s.notify()
}

func (s *Session) receiver(js uint64) socket.Handler {
	return func(data json.RawMessage) {
		var ev models.MessageReceived
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Warn("bad messageReceived payload", slog.String("error", err.Error()))
			return
		}
		s.mu.Lock()
		if js != s.joinSeq || s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.seq++
		m := models.FromEvent(ev)
		m.Seq = s.seq
		m.ReceivedAt = s.now()
		s.messages = append(s.messages, m)
		s.mu.Unlock()
		s.notify()
	}
}

// Send emits text to the room. Whitespace-only text is rejected. The message
// shows up in Messages only when the server echoes it back.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.self.ID == "" {
		s.mu.Unlock()
		return ErrNoIdentity
	}
	msg := models.SendMessage{
		FirstName:      s.self.FirstName,
		LastName:       s.self.LastName,
		LoggedInUserID: s.self.ID,
		TargetUserID:   s.target,
		Text:           text,
	}
	conn := s.conn
	s.mu.Unlock()

	if s.mode == config.SendOnFreshConnection {
		fresh, err := s.connector.Connect(ctx)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer fresh.Disconnect()
		return fresh.Emit(models.EventSendMessage, msg)
	}

	if conn == nil {
		return ErrNotJoined
	}
	return conn.Emit(models.EventSendMessage, msg)
}

// Retarget switches the session to another user. The old room is left before
// the new one is joined; its messages are discarded. The new history is
// requested even when the join fails.
func (s *Session) Retarget(ctx context.Context, target string) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if target == s.target {
		s.mu.Unlock()
		return nil
	}
	old := s.conn
	s.conn = nil
	s.target = target
	s.gen++
	s.joinSeq++
	s.joining = false
	s.loaded = false
	s.loading = false
	s.messages = nil
	s.seq = 0
	s.state = StateUnjoined
	self := s.self
	s.mu.Unlock()
	s.notify()

	if old != nil {
		old.Disconnect()
	}
	var joinErr error
	if self.ID != "" {
		joinErr = s.Identify(ctx, self)
	}
	return errors.Join(joinErr, s.Start(ctx))
}

// Close leaves the room. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	s.gen++
	s.joinSeq++
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	s.notify()

	if conn != nil {
		return conn.Disconnect()
	}
	return nil
}

// IsSelf reports whether m was sent by the identified user. Stable ids are
// compared when both are known; otherwise first names are.
func (s *Session) IsSelf(m models.Message) bool {
	s.mu.Lock()
	self := s.self
	s.mu.Unlock()
	if m.SenderID != "" && self.ID != "" {
		return m.SenderID == self.ID
	}
	return self.FirstName != "" && m.FirstName == self.FirstName
}

// Messages is a copy of the conversation in display order.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}
