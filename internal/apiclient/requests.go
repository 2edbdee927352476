package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"devmatch/client/internal/models"
)

// SendRequest expresses interest in, or ignores, userID.
func (c *Client) SendRequest(ctx context.Context, status models.RequestStatus, userID string) error {
	if err := status.ValidateSend(); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPost, "/request/send/"+string(status)+"/"+url.PathEscape(userID), nil, struct{}{})
	return err
}

// ReviewRequest accepts or rejects a pending request.
func (c *Client) ReviewRequest(ctx context.Context, status models.RequestStatus, requestID string) error {
	if err := status.ValidateReview(); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPost, "/request/review/"+string(status)+"/"+url.PathEscape(requestID), nil, struct{}{})
	return err
}

// PendingRequests lists requests others sent to the current user.
func (c *Client) PendingRequests(ctx context.Context) ([]models.PendingRequest, error) {
	raw, err := c.do(ctx, http.MethodGet, "/user/requests/pending", nil, nil)
	if err != nil {
		return nil, err
	}
	list, err := decodeList[models.PendingRequest](raw)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Connections lists the profiles the current user is connected with.
func (c *Client) Connections(ctx context.Context) ([]models.Profile, error) {
	raw, err := c.do(ctx, http.MethodGet, "/user/requests/my-connection", nil, nil)
	if err != nil {
		return nil, err
	}
	list, err := decodeList[models.Profile](raw)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
