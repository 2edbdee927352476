package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"devmatch/client/internal/apiclient"
	"devmatch/client/internal/appstate"
	"devmatch/client/internal/config"
	"devmatch/client/internal/localization"
	"devmatch/client/internal/models"
)

// errQuit ends the interactive shell.
var errQuit = errors.New("quit")

// App is everything one CLI process shares across commands. The session
// cookie lives in the api client's jar for the lifetime of the process.
type App struct {
	cfg    config.Client
	logger *slog.Logger
	api    *apiclient.Client
	store  *appstate.Store
	t      func(key string, args ...any) string

	in *bufio.Scanner

	outMu sync.Mutex
	out   io.Writer

	email, password string
}

func newApp(cfg config.Client, logger *slog.Logger, in io.Reader, out io.Writer) (*App, error) {
	api, err := apiclient.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	loc, err := localization.Bundled()
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		api:    api,
		store:  appstate.New(api, logger),
		t:      loc.For(cfg.Lang),
		in:     bufio.NewScanner(in),
		out:    out,
	}, nil
}

// printf writes to the terminal. Background goroutines print through it too.
func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(s string) {
	a.printf("%s\n", s)
}

func (a *App) fail(err error) {
	a.println(styles.Error.Render(a.t("error.prefix", err)))
}

// readLine prompts and reads one trimmed line. ok is false at end of input.
func (a *App) readLine(prompt string) (line string, ok bool) {
	a.printf("%s", styles.Prompt.Render(prompt))
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

// ask returns value when set, otherwise prompts for it.
func (a *App) ask(value, prompt string) string {
	if value != "" {
		return value
	}
	line, _ := a.readLine(prompt)
	return line
}

// me returns the signed-in user, logging in with the --email/--password
// credentials when there is no session yet.
func (a *App) me(ctx context.Context) (models.Profile, error) {
	if u, ok := a.store.User(); ok {
		return u, nil
	}
	if a.email != "" && a.password != "" {
		return a.store.Login(ctx, models.Credentials{EmailID: a.email, Password: a.password})
	}
	u, err := a.store.EnsureUser(ctx)
	if errors.Is(err, appstate.ErrSignedOut) {
		return models.Profile{}, errors.New(a.t("error.signed_out"))
	}
	return u, err
}
