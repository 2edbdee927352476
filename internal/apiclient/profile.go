package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"devmatch/client/internal/models"
)

// Profile fetches the authenticated user. An empty body counts as signed out.
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	raw, err := c.do(ctx, http.MethodGet, "/profile", nil, nil)
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(raw)
}

// EditProfile applies edit and returns the updated profile.
func (c *Client) EditProfile(ctx context.Context, edit models.ProfileEdit) (models.Profile, error) {
	raw, err := c.do(ctx, http.MethodPatch, "/profile/edit", nil, edit)
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(raw)
}

// Login starts a session; the session cookie lands in the jar.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.Profile, error) {
	raw, err := c.do(ctx, http.MethodPost, "/login", nil, creds)
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(raw)
}

// SignUp creates an account and starts a session.
func (c *Client) SignUp(ctx context.Context, req models.SignUp) (models.Profile, error) {
	raw, err := c.do(ctx, http.MethodPost, "/signUp", nil, req)
	if err != nil {
		return models.Profile{}, err
	}
	return decodeProfile(raw)
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/logout", nil, struct{}{})
	return err
}

func decodeProfile(raw []byte) (models.Profile, error) {
	p, shape, err := decodeObject[models.Profile](raw)
	if err != nil {
		return models.Profile{}, err
	}
	if shape == shapeEmpty || p.ID == "" {
		return models.Profile{}, fmt.Errorf("%w: no user in response", ErrUnauthorized)
	}
	return p, nil
}
