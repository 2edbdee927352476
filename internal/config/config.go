// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment selects deployment-dependent behaviour, such as the socket endpoint.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// SendMode selects which connection chat messages are emitted on.
type SendMode string

const (
	// SendOnSession emits on the session's listening connection.
	SendOnSession SendMode = "session"
	// SendOnFreshConnection opens a throwaway connection for every send.
	SendOnFreshConnection SendMode = "fresh"
)

// Client is the configuration of the devmatch client.
type Client struct {
	BaseURL     string
	Env         Environment
	SocketPath  string
	SendMode    SendMode
	HTTPTimeout time.Duration
	LogLevel    slog.Level
	// Lang selects the UI string catalog.
	Lang string
}

// Server is the configuration of the dev backend.
type Server struct {
	ListenAddr  string
	JWTSecret   string
	DatabaseDSN string
	RedisAddr   string
	LogLevel    slog.Level
}

// LoadEnvFile loads .env into the process environment. A missing file is not an error.
func LoadEnvFile(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("no .env file loaded", slog.String("error", err.Error()))
	}
}

// LoadClient reads the client configuration through getenv.
func LoadClient(getenv func(string) string) (Client, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := Client{
		BaseURL:     valueOr(getenv("API_BASE_URL"), "http://localhost:7777"),
		Env:         Environment(valueOr(getenv("APP_ENV"), string(Development))),
		SendMode:    SendMode(valueOr(getenv("CHAT_SEND_MODE"), string(SendOnSession))),
		HTTPTimeout: DefaultHTTPTimeout,
		Lang:        valueOr(getenv("DEVMATCH_LANG"), "en"),
	}

	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return Client{}, fmt.Errorf("invalid API_BASE_URL %q: %w", c.BaseURL, err)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	switch c.Env {
	case Development, Production:
	default:
		return Client{}, fmt.Errorf("invalid APP_ENV %q", c.Env)
	}

	switch c.SendMode {
	case SendOnSession, SendOnFreshConnection:
	default:
		return Client{}, fmt.Errorf("invalid CHAT_SEND_MODE %q", c.SendMode)
	}

	c.SocketPath = getenv("SOCKET_PATH")
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath(c.Env)
	}

	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Client{}, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", v, err)
		}
		c.HTTPTimeout = d
	}

	level, err := ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return Client{}, err
	}
	c.LogLevel = level

	return c, nil
}

// LoadServer reads the dev backend configuration through getenv.
func LoadServer(getenv func(string) string) (Server, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := Server{
		ListenAddr:  valueOr(getenv("LISTEN_ADDR"), ":7777"),
		JWTSecret:   getenv("JWT_SECRET"),
		DatabaseDSN: getenv("DATABASE_DSN"),
		RedisAddr:   getenv("REDIS_ADDR"),
	}
	if s.JWTSecret == "" {
		return Server{}, fmt.Errorf("JWT_SECRET is not set")
	}

	level, err := ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return Server{}, err
	}
	s.LogLevel = level

	return s, nil
}

// DefaultSocketPath is the socket upgrade path for env. Production sits behind
// the same-origin reverse proxy that serves the API under /api.
func DefaultSocketPath(env Environment) string {
	if env == Production {
		return "/api/socket.io/"
	}
	return "/socket.io/"
}

// ParseLevel maps LOG_LEVEL to a slog level. Empty means info.
func ParseLevel(v string) (slog.Level, error) {
	if v == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
	}
	return level, nil
}

// NewLogger builds the process logger.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
