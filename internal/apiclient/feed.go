package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"devmatch/client/internal/models"
)

// Feed fetches one page of candidates. query is sent as-is; see feed.BuildQuery.
func (c *Client) Feed(ctx context.Context, query url.Values) (models.FeedPage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/user/feed", query, nil)
	if err != nil {
		return models.FeedPage{}, err
	}
	list, err := decodeList[models.Profile](raw)
	if err != nil {
		return models.FeedPage{}, err
	}
	return models.FeedPage{
		Items:      list.Items,
		Pagination: list.Pagination,
		Filters:    list.Filters,
	}, nil
}
