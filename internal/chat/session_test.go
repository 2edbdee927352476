package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"devmatch/client/internal/chat"
	"devmatch/client/internal/config"
	"devmatch/client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	ada = models.Profile{ID: "u1", FirstName: "Ada", LastName: "Lovelace"}
	bob = models.Profile{ID: "u2", FirstName: "Bob"}
)

func history(texts ...string) []models.HistoryRecord {
	var out []models.HistoryRecord
	for _, t := range texts {
		out = append(out, models.HistoryRecord{SenderID: models.Sender{FirstName: "Bob"}, Text: t})
	}
	return out
}

func texts(ms []models.Message) []string {
	var out []string
	for _, m := range ms {
		out = append(out, m.Text)
	}
	return out
}

func newSession(t *testing.T, mode config.SendMode) (*chat.Session, *MockHistory, *MockConnector) {
	t.Helper()
	h, c := new(MockHistory), new(MockConnector)
	s := chat.NewSession(bob.ID, h, c, mode, nil)
	t.Cleanup(func() { s.Close() })
	return s, h, c
}

func TestSession_StartFlattensHistory(t *testing.T) {
	s, h, _ := newSession(t, config.SendOnSession)
	h.On("ChatHistory", mock.Anything, "u2").Return(history("hi", "there"), nil)

	require.NoError(t, s.Start(context.Background()))

	msgs := s.Messages()
	assert.Equal(t, []string{"hi", "there"}, texts(msgs))
	assert.Equal(t, "Bob", msgs[0].FirstName)
	assert.Equal(t, uint64(1), msgs[0].Seq)
	assert.Equal(t, chat.StateUnjoined, s.State())
}

func TestSession_HistoryFailureIsReported(t *testing.T) {
	s, h, _ := newSession(t, config.SendOnSession)
	h.On("ChatHistory", mock.Anything, "u2").Return(nil, errors.New("500"))

	assert.Error(t, s.Start(context.Background()))
	assert.Empty(t, s.Messages())
	assert.Equal(t, chat.StateUnjoined, s.State())
}

func TestSession_NoIdentityNoJoin(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)

	assert.ErrorIs(t, s.Identify(context.Background(), models.Profile{FirstName: "Ghost"}), chat.ErrNoIdentity)
	assert.ErrorIs(t, s.Send(context.Background(), "hello"), chat.ErrNoIdentity)
	c.AssertNotCalled(t, "Connect", mock.Anything)
}

func TestSession_IdentifyJoinsOnce(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil).Once()
	ctx := context.Background()

	require.NoError(t, s.Identify(ctx, ada))
	require.NoError(t, s.Identify(ctx, ada))

	assert.Equal(t, chat.StateJoined, s.State())
	assert.Equal(t, 1, conn.handlerCount(models.EventMessageReceived))
	emits := conn.Emits()
	require.Len(t, emits, 1)
	assert.Equal(t, models.EventJoinChat, emits[0].Event)
	assert.Equal(t, models.JoinChat{FirstName: "Ada", LoggedInUserID: "u1", TargetUserID: "u2"}, emits[0].Payload)
	c.AssertNumberOfCalls(t, "Connect", 1)
}

func TestSession_LiveMessagesInReceiptOrder(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil)
	require.NoError(t, s.Identify(context.Background(), ada))

	conn.deliver(models.MessageReceived{FirstName: "Bob", Text: "one"})
	conn.deliver(models.MessageReceived{FirstName: "Ada", Text: "two", SenderID: "u1"})
	conn.deliver(models.MessageReceived{FirstName: "Bob", Text: "three"})

	msgs := s.Messages()
	assert.Equal(t, []string{"one", "two", "three"}, texts(msgs))
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{msgs[0].Seq, msgs[1].Seq, msgs[2].Seq})
	assert.False(t, s.IsSelf(msgs[0]))
	assert.True(t, s.IsSelf(msgs[1]))
}

func TestSession_LateHistoryIsPrefix(t *testing.T) {
	s, h, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil)

	release := make(chan time.Time)
	h.On("ChatHistory", mock.Anything, "u2").
		WaitUntil(release).
		Return(history("old1", "old2"), nil)

	started := make(chan error, 1)
	go func() { started <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return s.State() == chat.StateHistoryLoading }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Identify(context.Background(), ada))
	conn.deliver(models.MessageReceived{FirstName: "Bob", Text: "live"})
	close(release)
	require.NoError(t, <-started)

	msgs := s.Messages()
	assert.Equal(t, []string{"old1", "old2", "live"}, texts(msgs))
	assert.Equal(t, uint64(3), msgs[2].Seq)
	assert.Equal(t, chat.StateJoined, s.State())
}

func TestSession_HistoryAfterCloseIsIgnored(t *testing.T) {
	s, h, _ := newSession(t, config.SendOnSession)
	release := make(chan time.Time)
	h.On("ChatHistory", mock.Anything, "u2").WaitUntil(release).Return(history("late"), nil)

	started := make(chan error, 1)
	go func() { started <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return s.State() == chat.StateHistoryLoading }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close())
	close(release)
	assert.NoError(t, <-started)
	assert.Empty(t, s.Messages())
	assert.Equal(t, chat.StateClosed, s.State())
}

func TestSession_SendOnSession(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil).Once()
	ctx := context.Background()

	assert.ErrorIs(t, s.Send(ctx, "   \n"), chat.ErrEmptyMessage)
	require.NoError(t, s.Identify(ctx, ada))
	require.NoError(t, s.Send(ctx, "hello"))

	emits := conn.Emits()
	require.Len(t, emits, 2)
	assert.Equal(t, models.EventSendMessage, emits[1].Event)
	assert.Equal(t, models.SendMessage{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		LoggedInUserID: "u1",
		TargetUserID:   "u2",
		Text:           "hello",
	}, emits[1].Payload)
	assert.Empty(t, s.Messages(), "sent messages appear only when echoed")
	c.AssertNumberOfCalls(t, "Connect", 1)
}

func TestSession_SendOnFreshConnection(t *testing.T) {
	s, _, c := newSession(t, config.SendOnFreshConnection)
	listening, fresh := newFakeConn(), newFakeConn()
	c.On("Connect", mock.Anything).Return(listening, nil).Once()
	c.On("Connect", mock.Anything).Return(fresh, nil).Once()
	ctx := context.Background()

	require.NoError(t, s.Identify(ctx, ada))
	require.NoError(t, s.Send(ctx, "hello"))

	require.Len(t, fresh.Emits(), 1)
	assert.Equal(t, models.EventSendMessage, fresh.Emits()[0].Event)
	assert.Equal(t, 1, fresh.Disconnects())
	assert.Len(t, listening.Emits(), 1, "only the join went out on the listening connection")
	assert.Equal(t, 0, listening.Disconnects())
}

func TestSession_SendWithoutConnection(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	c.On("Connect", mock.Anything).Return(nil, errors.New("refused"))
	ctx := context.Background()

	assert.Error(t, s.Identify(ctx, ada))
	assert.ErrorIs(t, s.Send(ctx, "hello"), chat.ErrNotJoined)
}

func TestSession_CloseDisconnectsExactlyOnce(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil)
	ctx := context.Background()
	require.NoError(t, s.Identify(ctx, ada))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, conn.Disconnects())
	assert.Equal(t, chat.StateClosed, s.State())
	assert.ErrorIs(t, s.Send(ctx, "hi"), chat.ErrClosed)
	assert.ErrorIs(t, s.Identify(ctx, ada), chat.ErrClosed)

	conn.deliver(models.MessageReceived{FirstName: "Bob", Text: "after close"})
	assert.Empty(t, s.Messages())
}

func TestSession_RetargetLeavesOldRoomFirst(t *testing.T) {
	s, h, c := newSession(t, config.SendOnSession)
	first, second := newFakeConn(), newFakeConn()
	c.On("Connect", mock.Anything).Return(first, nil).Once()
	c.On("Connect", mock.Anything).Return(second, nil).Once()
	h.On("ChatHistory", mock.Anything, "u3").Return(history("hey"), nil)
	ctx := context.Background()

	require.NoError(t, s.Identify(ctx, ada))
	first.deliver(models.MessageReceived{FirstName: "Bob", Text: "for u2"})

	require.NoError(t, s.Retarget(ctx, "u3"))

	assert.Equal(t, 1, first.Disconnects())
	assert.Equal(t, 0, second.Disconnects())
	assert.Equal(t, "u3", s.Target())
	join := second.Emits()[0].Payload.(models.JoinChat)
	assert.Equal(t, "u3", join.TargetUserID)
	assert.Equal(t, []string{"hey"}, texts(s.Messages()))

	first.deliver(models.MessageReceived{FirstName: "Bob", Text: "stale"})
	assert.Equal(t, []string{"hey"}, texts(s.Messages()))
}

func TestSession_ServerDropUnjoins(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil)
	require.NoError(t, s.Identify(context.Background(), ada))

	conn.drop()

	require.Eventually(t, func() bool { return s.State() == chat.StateUnjoined }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.Send(context.Background(), "hi"), chat.ErrNotJoined)
}

func TestSession_IsSelfFallsBackToFirstName(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	c.On("Connect", mock.Anything).Return(newFakeConn(), nil)
	require.NoError(t, s.Identify(context.Background(), ada))

	assert.True(t, s.IsSelf(models.Message{FirstName: "Ada"}))
	assert.False(t, s.IsSelf(models.Message{FirstName: "Ada", SenderID: "someone-else"}))
	assert.False(t, s.IsSelf(models.Message{FirstName: "Bob"}))
}

func TestComposer(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil)
	require.NoError(t, s.Identify(context.Background(), ada))
	comp := chat.NewComposer(s)

	comp.SetInput("  ")
	assert.False(t, comp.CanSend())
	assert.Nil(t, comp.Submit(context.Background()))
	assert.Equal(t, "  ", comp.Input())

	comp.SetInput("hello")
	assert.True(t, comp.CanSend())
	result := comp.Submit(context.Background())
	assert.Empty(t, comp.Input(), "input clears before the send completes")
	require.NotNil(t, result)
	assert.NoError(t, <-result)
	assert.Equal(t, models.EventSendMessage, conn.Emits()[1].Event)
}

func TestSession_ChangedSignals(t *testing.T) {
	s, _, c := newSession(t, config.SendOnSession)
	conn := newFakeConn()
	c.On("Connect", mock.Anything).Return(conn, nil)
	require.NoError(t, s.Identify(context.Background(), ada))

	<-s.Changed()
	conn.deliver(models.MessageReceived{Text: "ping"})
	select {
	case <-s.Changed():
	case <-time.After(time.Second):
		t.Fatal("no change signal for a new message")
	}
}

func TestSession_OverlappingStartFetchesOnce(t *testing.T) {
	s, h, _ := newSession(t, config.SendOnSession)
	release := make(chan time.Time)
	h.On("ChatHistory", mock.Anything, "u2").WaitUntil(release).Return(history("hi"), nil).Once()

	started := make(chan error, 1)
	go func() { started <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return s.State() == chat.StateHistoryLoading }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	close(release)
	require.NoError(t, <-started)

	assert.Equal(t, []string{"hi"}, texts(s.Messages()))
	h.AssertNumberOfCalls(t, "ChatHistory", 1)

	require.NoError(t, s.Start(context.Background()))
	h.AssertNumberOfCalls(t, "ChatHistory", 1)
}

func TestSession_StartRetriesAfterFailure(t *testing.T) {
	s, h, _ := newSession(t, config.SendOnSession)
	h.On("ChatHistory", mock.Anything, "u2").Return(nil, errors.New("500")).Once()
	h.On("ChatHistory", mock.Anything, "u2").Return(history("hi"), nil).Once()

	assert.Error(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"hi"}, texts(s.Messages()))
}

func TestSession_RetargetLoadsHistoryWhenJoinFails(t *testing.T) {
	s, h, c := newSession(t, config.SendOnSession)
	first := newFakeConn()
	c.On("Connect", mock.Anything).Return(first, nil).Once()
	c.On("Connect", mock.Anything).Return(nil, errors.New("dial refused")).Once()
	h.On("ChatHistory", mock.Anything, "u3").Return(history("hey"), nil)
	ctx := context.Background()

	require.NoError(t, s.Identify(ctx, ada))
	err := s.Retarget(ctx, "u3")

	assert.ErrorContains(t, err, "dial refused")
	h.AssertCalled(t, "ChatHistory", mock.Anything, "u3")
	assert.Equal(t, []string{"hey"}, texts(s.Messages()))
	assert.Equal(t, chat.StateUnjoined, s.State())
	assert.Equal(t, 1, first.Disconnects())
}

func TestSession_RetargetDuringJoinDropsStaleConnection(t *testing.T) {
	h := new(MockHistory)
	h.On("ChatHistory", mock.Anything, "u3").Return(history("hey"), nil)
	gc := newGatedConnector(2)
	s := chat.NewSession(bob.ID, h, gc, config.SendOnSession, nil)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	joined := make(chan error, 1)
	go func() { joined <- s.Identify(ctx, ada) }()
	<-gc.calls

	stale, fresh := newFakeConn(), newFakeConn()
	gc.gates[1] <- fresh
	require.NoError(t, s.Retarget(ctx, "u3"))

	gc.gates[0] <- stale
	require.NoError(t, <-joined)

	assert.Equal(t, 1, stale.Disconnects())
	assert.Equal(t, 0, stale.handlerCount(models.EventMessageReceived))
	assert.Empty(t, stale.Emits())
	assert.Equal(t, 0, fresh.Disconnects())
	require.Len(t, fresh.Emits(), 1)
	assert.Equal(t, "u3", fresh.Emits()[0].Payload.(models.JoinChat).TargetUserID)
	assert.Equal(t, chat.StateJoined, s.State())
	assert.Equal(t, []string{"hey"}, texts(s.Messages()))
}

func TestSession_RetargetDuringHistoryLoadDropsOldHistory(t *testing.T) {
	s, h, _ := newSession(t, config.SendOnSession)
	release := make(chan time.Time)
	h.On("ChatHistory", mock.Anything, "u2").WaitUntil(release).Return(history("for u2"), nil)
	h.On("ChatHistory", mock.Anything, "u3").Return(history("for u3"), nil)

	started := make(chan error, 1)
	go func() { started <- s.Start(context.Background()) }()
	require.Eventually(t, func() bool { return s.State() == chat.StateHistoryLoading }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Retarget(context.Background(), "u3"))
	close(release)
	require.NoError(t, <-started)

	assert.Equal(t, []string{"for u3"}, texts(s.Messages()))
	assert.Equal(t, chat.StateUnjoined, s.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "joined", chat.StateJoined.String())
	assert.Equal(t, "unknown", chat.State(42).String())
}
