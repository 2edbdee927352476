package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"devmatch/client/internal/apiclient"
	"devmatch/client/internal/models"
)

// ErrSuperseded is returned for a fetch that a newer fetch replaced. It is not
// a failure and is never shown to the user.
var ErrSuperseded = errors.New("feed: request superseded")

// Source is the REST boundary the feed reads from.
type Source interface {
	Feed(ctx context.Context, query url.Values) (models.FeedPage, error)
}

// Result is the outcome of one fetch.
type Result struct {
	Page  models.FeedPage
	Query url.Values
	// Seq is the issue order of the fetch within its Fetcher.
	Seq uint64
}

// Fetcher keeps at most one feed request in flight. Issuing a fetch cancels
// the previous one, and only the most recently issued fetch may report a result.
type Fetcher struct {
	source Source
	logger *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewFetcher builds a Fetcher reading from source.
func NewFetcher(source Source, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, logger: logger.With(slog.String("component", "feed.fetcher"))}
}

// Fetch cancels any fetch in flight and requests page with filters.
//
// A superseded or cancelled fetch returns ErrSuperseded, even if its response
// arrived. A genuine failure is logged and returns an empty result with the error, so
// the caller can render an empty state.
func (f *Fetcher) Fetch(ctx context.Context, page, limit int, filters Filters) (Result, error) {
	query := BuildQuery(page, limit, filters)

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	seq := f.seq
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.seq == seq {
			f.cancel = nil
		}
		f.mu.Unlock()
		cancel()
	}()

	p, err := f.source.Feed(reqCtx, query)

	// Cancellation may not reach the source promptly; a stale response is dropped here.
	if !f.IsCurrent(seq) {
		f.logger.Debug("dropping superseded feed response", slog.Uint64("seq", seq))
		return Result{Query: query, Seq: seq}, ErrSuperseded
	}
	if err != nil {
		if apiclient.IsCanceled(err) {
			f.logger.Debug("feed request cancelled", slog.Uint64("seq", seq))
			return Result{Query: query, Seq: seq}, ErrSuperseded
		}
		f.logger.Error("feed request failed",
			slog.Uint64("seq", seq),
			slog.String("query", query.Encode()),
			slog.String("error", err.Error()))
		return Result{Query: query, Seq: seq}, err
	}
	return Result{Page: p, Query: query, Seq: seq}, nil
}

// IsCurrent reports whether seq is the most recently issued fetch.
func (f *Fetcher) IsCurrent(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq == seq
}

// Cancel aborts the fetch in flight, if any.
func (f *Fetcher) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
