package chathub_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"devmatch/client/internal/chathub"
	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
	"devmatch/client/internal/socket"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hubServer upgrades every request and registers it with the hub as the user
// named by the session cookie.
func hubServer(t *testing.T, hub *chathub.ManagerService) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(config.SessionCookie)
		if err != nil {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := socket.Accept(ws, "sid-"+cookie.Value, 50*time.Millisecond, time.Second); err != nil {
			ws.Close()
			return
		}
		c := chathub.NewWebSocketClient(cookie.Value, ws, hub, 50*time.Millisecond, time.Second)
		if !hub.Register(c) {
			ws.Close()
			return
		}
		c.Run()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialAs(t *testing.T, srv *httptest.Server, userID string) *socket.Conn {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: config.SessionCookie, Value: userID, Path: "/"}})

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	conn, err := (&socket.Dialer{BaseURL: srv.URL, Path: "/socket.io/", Jar: jar}).Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Disconnect() })
	return conn
}

func inbox(conn *socket.Conn) <-chan models.MessageReceived {
	ch := make(chan models.MessageReceived, 8)
	conn.On(models.EventMessageReceived, func(data json.RawMessage) {
		var m models.MessageReceived
		if json.Unmarshal(data, &m) == nil {
			ch <- m
		}
	})
	return ch
}

func TestWebSocketClient_RoundTrip(t *testing.T) {
	hub, _ := startHub(t)
	srv := hubServer(t, hub)

	alice := dialAs(t, srv, "alice")
	bob := dialAs(t, srv, "bob")
	bobInbox := inbox(bob)

	require.NoError(t, bob.Emit(models.EventJoinChat, models.JoinChat{FirstName: "Bob", LoggedInUserID: "bob", TargetUserID: "alice"}))
	require.Eventually(t, func() bool {
		return contains(hub.Members(models.RoomID("alice", "bob")), "bob")
	}, waitFor, 10*time.Millisecond)

	require.NoError(t, alice.Emit(models.EventSendMessage, models.SendMessage{
		FirstName: "Alice", LastName: "A", LoggedInUserID: "alice", TargetUserID: "bob", Text: "hello",
	}))

	select {
	case m := <-bobInbox:
		assert.Equal(t, models.MessageReceived{FirstName: "Alice", LastName: "A", Text: "hello", SenderID: "alice"}, m)
	case <-time.After(waitFor):
		t.Fatal("bob never received the message")
	}
}

func TestWebSocketClient_SpoofedSenderIsIgnored(t *testing.T) {
	hub, store := startHub(t)
	srv := hubServer(t, hub)

	mallory := dialAs(t, srv, "mallory")
	require.NoError(t, mallory.Emit(models.EventSendMessage, models.SendMessage{
		LoggedInUserID: "alice", TargetUserID: "bob", Text: "spoof",
	}))
	require.NoError(t, mallory.Emit(models.EventSendMessage, models.SendMessage{
		LoggedInUserID: "mallory", TargetUserID: "bob", Text: "real",
	}))

	assert.Eventually(t, func() bool {
		h, _ := store.GetChatHistory(context.Background(), models.RoomID("mallory", "bob"))
		return len(h) == 1
	}, waitFor, 10*time.Millisecond)
	spoofed, _ := store.GetChatHistory(context.Background(), models.RoomID("alice", "bob"))
	assert.Empty(t, spoofed)
}

func TestWebSocketClient_DisconnectLeavesRoom(t *testing.T) {
	hub, _ := startHub(t)
	srv := hubServer(t, hub)

	bob := dialAs(t, srv, "bob")
	require.NoError(t, bob.Emit(models.EventJoinChat, models.JoinChat{LoggedInUserID: "bob", TargetUserID: "alice"}))
	roomID := models.RoomID("alice", "bob")
	require.Eventually(t, func() bool { return len(hub.Members(roomID)) == 1 }, waitFor, 10*time.Millisecond)

	require.NoError(t, bob.Disconnect())
	assert.Eventually(t, func() bool { return len(hub.Members(roomID)) == 0 }, waitFor, 10*time.Millisecond)
}

func TestWebSocketClient_ServerPingsKeepConnectionAlive(t *testing.T) {
	hub, _ := startHub(t)
	srv := hubServer(t, hub)

	bob := dialAs(t, srv, "bob")
	select {
	case <-bob.Done():
		t.Fatal("connection dropped while idle")
	case <-time.After(300 * time.Millisecond):
	}
}
