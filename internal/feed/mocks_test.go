package feed_test

import (
	"context"
	"net/url"
	"sync"

	"devmatch/client/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockSource is a testify mock of feed.Source.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Feed(ctx context.Context, query url.Values) (models.FeedPage, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(models.FeedPage), args.Error(1)
}

// gatedSource blocks every call until its gate for that call index is
// released, so tests can interleave overlapping fetches. With deaf set it
// ignores cancellation, like a transport that answers anyway.
type gatedSource struct {
	calls chan url.Values
	gates []chan models.FeedPage
	deaf  bool

	mu sync.Mutex
	n  int
}

func newGatedSource(n int) *gatedSource {
	s := &gatedSource{calls: make(chan url.Values, n)}
	for range n {
		s.gates = append(s.gates, make(chan models.FeedPage, 1))
	}
	return s
}

func (s *gatedSource) Feed(ctx context.Context, query url.Values) (models.FeedPage, error) {
	s.mu.Lock()
	i := s.n
	s.n++
	s.mu.Unlock()
	s.calls <- query
	if s.deaf {
		return <-s.gates[i], nil
	}
	select {
	case p := <-s.gates[i]:
		return p, nil
	case <-ctx.Done():
		return models.FeedPage{}, ctx.Err()
	}
}

func page(ids ...string) models.FeedPage {
	p := models.FeedPage{}
	for _, id := range ids {
		p.Items = append(p.Items, models.Profile{ID: id, FirstName: id})
	}
	return p
}

func paged(n, limit, total int, ids ...string) models.FeedPage {
	p := page(ids...)
	pg := models.NewPagination(n, limit, total)
	p.Pagination = &pg
	return p
}
