// Package appstate holds the signed-in user for the lifetime of one client
// process. A Store is created at start-up and passed to whatever needs it.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"devmatch/client/internal/apiclient"
	"devmatch/client/internal/models"

	"golang.org/x/sync/singleflight"
)

// ErrSignedOut means there is no valid session; the user must log in.
var ErrSignedOut = errors.New("appstate: signed out")

// Auth is the subset of the REST client the store uses.
type Auth interface {
	Profile(ctx context.Context) (models.Profile, error)
	Login(ctx context.Context, creds models.Credentials) (models.Profile, error)
	SignUp(ctx context.Context, req models.SignUp) (models.Profile, error)
	Logout(ctx context.Context) error
	EditProfile(ctx context.Context, edit models.ProfileEdit) (models.Profile, error)
}

// Store caches the authenticated profile.
type Store struct {
	auth   Auth
	logger *slog.Logger
	flight singleflight.Group

	mu    sync.Mutex
	user  *models.Profile
	epoch uint64 // bumped on every identity change
	subs  map[chan models.Profile]struct{}
}

func New(auth Auth, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		auth:   auth,
		logger: logger.With(slog.String("component", "appstate")),
		subs:   make(map[chan models.Profile]struct{}),
	}
}

// User returns the cached profile without fetching.
func (s *Store) User() (models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.Profile{}, false
	}
	return *s.user, true
}

// EnsureUser returns the cached profile, fetching it once if absent.
// Concurrent callers share one request. A 401 clears the user and returns
// ErrSignedOut.
func (s *Store) EnsureUser(ctx context.Context) (models.Profile, error) {
	if u, ok := s.User(); ok {
		return u, nil
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	v, err, shared := s.flight.Do(fmt.Sprintf("profile:%d", epoch), func() (any, error) {
		return s.auth.Profile(ctx)
	})
	if shared {
		s.logger.Debug("profile fetch coalesced")
	}

	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.set(epoch, nil)
			return models.Profile{}, ErrSignedOut
		}
		s.logger.Error("fetch profile", slog.String("error", err.Error()))
		return models.Profile{}, err
	}

	p := v.(models.Profile)
	if !s.set(epoch, &p) {
		// Identity changed while the fetch was in flight.
		if u, ok := s.User(); ok {
			return u, nil
		}
		return models.Profile{}, ErrSignedOut
	}
	return p, nil
}

// set stores u if no identity change happened since epoch.
func (s *Store) set(epoch uint64, u *models.Profile) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	changed := (s.user == nil) != (u == nil) || (u != nil && s.user.ID != u.ID)
	s.user = u
	if changed {
		s.epoch++
	}
	s.mu.Unlock()
	if changed {
		s.publish(u)
	}
	return true
}

// replace stores u unconditionally, as after login or logout.
func (s *Store) replace(u *models.Profile) {
	s.mu.Lock()
	s.user = u
	s.epoch++
	s.mu.Unlock()
	s.publish(u)
}

func (s *Store) publish(u *models.Profile) {
	var p models.Profile
	if u != nil {
		p = *u
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- p:
		default:
			// Slow subscriber: drop the stale value and keep the latest.
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}

// Subscribe returns a channel carrying the user after every identity change;
// a zero Profile means signed out. cancel stops delivery.
func (s *Store) Subscribe() (updates <-chan models.Profile, cancel func()) {
	ch := make(chan models.Profile, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Store) Login(ctx context.Context, creds models.Credentials) (models.Profile, error) {
	p, err := s.auth.Login(ctx, creds)
	if err != nil {
		return models.Profile{}, err
	}
	s.replace(&p)
	s.logger.Info("signed in", slog.String("user_id", p.ID))
	return p, nil
}

func (s *Store) SignUp(ctx context.Context, req models.SignUp) (models.Profile, error) {
	p, err := s.auth.SignUp(ctx, req)
	if err != nil {
		return models.Profile{}, err
	}
	s.replace(&p)
	return p, nil
}

// EditProfile saves edit and caches the updated profile.
func (s *Store) EditProfile(ctx context.Context, edit models.ProfileEdit) (models.Profile, error) {
	p, err := s.auth.EditProfile(ctx, edit)
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			s.replace(nil)
			return models.Profile{}, ErrSignedOut
		}
		return models.Profile{}, err
	}
	s.mu.Lock()
	s.user = &p
	s.mu.Unlock()
	return p, nil
}

// Logout ends the session. The local user is cleared even if the request fails.
func (s *Store) Logout(ctx context.Context) error {
	err := s.auth.Logout(ctx)
	s.replace(nil)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
