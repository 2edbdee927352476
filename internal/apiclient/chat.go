package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"devmatch/client/internal/models"
)

// ChatHistory fetches the stored conversation with targetUserID. The server
// derives the pair from the session and the path.
func (c *Client) ChatHistory(ctx context.Context, targetUserID string) ([]models.HistoryRecord, error) {
	if targetUserID == "" {
		return nil, fmt.Errorf("chat history: empty target user id")
	}
	raw, err := c.do(ctx, http.MethodGet, "/toChat/"+url.PathEscape(targetUserID), nil, nil)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var body models.ChatHistoryResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode chat history: %w", err)
	}
	return body.Messages, nil
}
