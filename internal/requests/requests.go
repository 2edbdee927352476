// Package requests manages connection requests: reviewing the pending inbox,
// listing connections, and expressing interest from the feed.
package requests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"devmatch/client/internal/models"
)

// ErrBusy is returned when a request is already being reviewed.
var ErrBusy = errors.New("requests: review already in progress")

// ErrNotFound is returned when reviewing a request that is not in the inbox.
var ErrNotFound = errors.New("requests: no such pending request")

// API is the REST surface the package needs.
type API interface {
	PendingRequests(ctx context.Context) ([]models.PendingRequest, error)
	ReviewRequest(ctx context.Context, status models.RequestStatus, requestID string) error
	Connections(ctx context.Context) ([]models.Profile, error)
	SendRequest(ctx context.Context, status models.RequestStatus, userID string) error
}

// Inbox is the list of requests waiting for the user's decision.
type Inbox struct {
	api    API
	logger *slog.Logger

	mu         sync.Mutex
	pending    []models.PendingRequest
	processing map[string]bool
}

func NewInbox(api API, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		api:        api,
		logger:     logger.With(slog.String("component", "requests.inbox")),
		processing: make(map[string]bool),
	}
}

// Load replaces the inbox with the server's pending list.
func (in *Inbox) Load(ctx context.Context) ([]models.PendingRequest, error) {
	reqs, err := in.api.PendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending requests: %w", err)
	}
	in.mu.Lock()
	in.pending = reqs
	in.mu.Unlock()
	return slices.Clone(reqs), nil
}

// Pending is a copy of the loaded inbox.
func (in *Inbox) Pending() []models.PendingRequest {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.pending)
}

// Processing reports whether requestID is being reviewed.
func (in *Inbox) Processing(requestID string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.processing[requestID]
}

// Review accepts or rejects requestID. A second review of the same request
// while the first is in flight fails with ErrBusy. The request leaves the
// inbox only after the server confirms.
func (in *Inbox) Review(ctx context.Context, status models.RequestStatus, requestID string) error {
	if err := status.ValidateReview(); err != nil {
		return err
	}

	in.mu.Lock()
	if in.processing[requestID] {
		in.mu.Unlock()
		return ErrBusy
	}
	if !slices.ContainsFunc(in.pending, func(r models.PendingRequest) bool { return r.ID == requestID }) {
		in.mu.Unlock()
		return ErrNotFound
	}
	in.processing[requestID] = true
	in.mu.Unlock()

	err := in.api.ReviewRequest(ctx, status, requestID)

	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.processing, requestID)
	if err != nil {
		in.logger.Error("review request",
			slog.String("request_id", requestID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("review %s: %w", requestID, err)
	}
	in.pending = slices.DeleteFunc(in.pending, func(r models.PendingRequest) bool { return r.ID == requestID })
	return nil
}

// Connections lists the user's accepted connections.
type Connections struct {
	api API
}

func NewConnections(api API) *Connections {
	return &Connections{api: api}
}

func (c *Connections) Load(ctx context.Context) ([]models.Profile, error) {
	conns, err := c.api.Connections(ctx)
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	return conns, nil
}

// Remover drops a profile from a visible list. feed.Machine satisfies it.
type Remover interface {
	Remove(id string) bool
}

// Actions are the interested/ignore decisions taken from the feed.
type Actions struct {
	api    API
	feed   Remover
	logger *slog.Logger
}

func NewActions(api API, feed Remover, logger *slog.Logger) *Actions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actions{api: api, feed: feed, logger: logger.With(slog.String("component", "requests.actions"))}
}

// Express removes profileID from the feed at once and then sends the
// decision. The profile is not restored if the send fails.
func (a *Actions) Express(ctx context.Context, status models.RequestStatus, profileID string) error {
	if err := status.ValidateSend(); err != nil {
		return err
	}
	a.feed.Remove(profileID)
	if err := a.api.SendRequest(ctx, status, profileID); err != nil {
		a.logger.Error("send request",
			slog.String("user_id", profileID),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("send %s to %s: %w", status, profileID, err)
	}
	return nil
}
