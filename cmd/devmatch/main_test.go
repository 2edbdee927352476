package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"devmatch/client/internal/api/handler"
	"devmatch/client/internal/chathub"
	"devmatch/client/internal/config"
	"devmatch/client/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := storage.NewMemory()
	hub := chathub.NewManagerService(store, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	srv := httptest.NewServer(handler.NewHandler(store, hub, "test-secret", nil).NewRouter())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv
}

func newTestApp(t *testing.T, srv *httptest.Server, in io.Reader) (*App, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	cfg := config.Client{
		BaseURL:     srv.URL,
		Env:         config.Development,
		SocketPath:  "/socket.io/",
		SendMode:    config.SendOnSession,
		HTTPTimeout: 2 * time.Second,
		Lang:        "en",
	}
	app, err := newApp(cfg, nil, in, out)
	require.NoError(t, err)
	return app, out
}

func run(t *testing.T, app *App, args ...string) error {
	t.Helper()
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func signUp(t *testing.T, app *App, first string) string {
	t.Helper()
	require.NoError(t, run(t, app, "signup", "--first-name", first, "--email", strings.ToLower(first)+"@example.com", "--password", "secret123"))
	u, ok := app.store.User()
	require.True(t, ok)
	return u.ID
}

func TestSignUpAndProfile(t *testing.T) {
	srv := newBackend(t)
	app, out := newTestApp(t, srv, strings.NewReader(""))

	signUp(t, app, "Ada")
	assert.Contains(t, out.String(), "Welcome to devmatch, Ada.")

	require.NoError(t, run(t, app, "profile", "edit", "--age", "36", "--skills", "go, sql", "--bio", "compilers"))
	require.NoError(t, run(t, app, "profile"))
	assert.Contains(t, out.String(), "36 years")
	assert.Contains(t, out.String(), "go · sql")

	require.NoError(t, run(t, app, "logout"))
	assert.Error(t, run(t, app, "profile"))
}

func TestLogin_PromptsForMissingCredentials(t *testing.T) {
	srv := newBackend(t)
	first, _ := newTestApp(t, srv, strings.NewReader(""))
	signUp(t, first, "Ada")

	app, out := newTestApp(t, srv, strings.NewReader("ada@example.com\nsecret123\n"))
	require.NoError(t, run(t, app, "login"))
	assert.Contains(t, out.String(), "email:")
	assert.Contains(t, out.String(), "Welcome back, Ada.")
}

func TestCommands_RequireSession(t *testing.T) {
	srv := newBackend(t)
	app, _ := newTestApp(t, srv, strings.NewReader(""))
	err := run(t, app, "connections")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestFeedRequestsAndConnections(t *testing.T) {
	srv := newBackend(t)
	ada, adaOut := newTestApp(t, srv, strings.NewReader("n\ni\nq\n"))
	bob, bobOut := newTestApp(t, srv, strings.NewReader(""))
	signUp(t, ada, "Ada")
	signUp(t, bob, "Bob")

	require.NoError(t, run(t, ada, "feed"))
	assert.Contains(t, adaOut.String(), "card 1 of 1")
	assert.Contains(t, adaOut.String(), "Bob marked interested.")

	require.NoError(t, run(t, bob, "requests"))
	assert.Contains(t, bobOut.String(), "Ada")

	pending, err := bob.api.PendingRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NoError(t, run(t, bob, "requests", "accept", pending[0].ID))
	assert.Contains(t, bobOut.String(), "accepted")

	require.NoError(t, run(t, ada, "connections"))
	assert.Contains(t, adaOut.String(), "Bob")
}

func TestFeed_FilterDialog(t *testing.T) {
	srv := newBackend(t)
	// skills, min age, max age, gender, limit
	ada, out := newTestApp(t, srv, strings.NewReader("f\nrust\n\n\n\n\nq\n"))
	bob, _ := newTestApp(t, srv, strings.NewReader(""))
	signUp(t, ada, "Ada")
	signUp(t, bob, "Bob")

	require.NoError(t, run(t, ada, "feed"))
	assert.Contains(t, out.String(), "No more developers match")
}

func TestShell_RunsCommandsInOneSession(t *testing.T) {
	srv := newBackend(t)
	app, out := newTestApp(t, srv, strings.NewReader(
		"signup --first-name Ada --email ada@example.com --password secret123\nprofile\nnope\nexit\nprofile\n"))

	require.NoError(t, run(t, app))
	got := out.String()
	assert.Contains(t, got, "Welcome to devmatch, Ada.")
	assert.Contains(t, got, "error: unknown command")
	assert.Equal(t, 1, strings.Count(got, "╭"), "exit stops before the second profile")
}

func TestChat_RoundTrip(t *testing.T) {
	srv := newBackend(t)
	inR, inW := io.Pipe()
	ada, out := newTestApp(t, srv, inR)
	bob, _ := newTestApp(t, srv, strings.NewReader(""))
	signUp(t, ada, "Ada")
	bobID := signUp(t, bob, "Bob")

	done := make(chan error, 1)
	go func() { done <- run(t, ada, "chat", bobID) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Chatting with")
	}, waitFor, 10*time.Millisecond)
	_, err := io.WriteString(inW, "hello bob\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "hello bob")
	}, waitFor, 10*time.Millisecond)
	_, err = io.WriteString(inW, "/quit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("chat did not exit")
	}

	history, err := bob.api.ChatHistory(context.Background(), ada.mustUserID(t))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Ada", history[0].SenderID.FirstName)
}

func (a *App) mustUserID(t *testing.T) string {
	t.Helper()
	u, ok := a.store.User()
	require.True(t, ok)
	return u.ID
}
