package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
)

// State is the feed's load state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePopulated
	StateEmpty
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateEmpty:
		return "empty"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is a copy of the machine state for rendering.
type Snapshot struct {
	State       State
	Items       []models.Profile
	Pagination  *models.Pagination
	Applied     Filters
	Server      *models.AppliedFilters
	Form        FilterForm
	ActiveIndex int
	ModalOpen   bool
	Err         error
}

func (s Snapshot) Loading() bool { return s.State == StateLoading }

// Active is the profile under the carousel, if any.
func (s Snapshot) Active() (models.Profile, bool) {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Items) {
		return models.Profile{}, false
	}
	return s.Items[s.ActiveIndex], true
}

// Machine drives feed loading, paging and filtering. All methods are safe
// for concurrent use; fetch methods block until their request settles.
type Machine struct {
	fetcher *Fetcher
	logger  *slog.Logger

	mu         sync.Mutex
	gen        uint64
	state      State
	items      []models.Profile
	pagination *models.Pagination
	server     *models.AppliedFilters
	applied    Filters
	limit      int
	lastErr    error
	loaded     bool
	form       FilterForm
	carousel   Carousel
	modalOpen  bool
	changed    chan struct{}
}

// NewMachine builds an idle Machine on top of source.
func NewMachine(source Source, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		fetcher: NewFetcher(source, logger),
		logger:  logger.With(slog.String("component", "feed")),
		form:    DefaultForm(),
		limit:   config.DefaultLimit,
		applied: Filters{},
		changed: make(chan struct{}, 1),
	}
}

// Changed receives a value whenever the snapshot changes. Signals coalesce.
func (m *Machine) Changed() <-chan struct{} { return m.changed }

func (m *Machine) notify() {
	select {
	case m.changed <- struct{}{}:
	default:
	}
}

// Load is the initial fetch: page 1 at the form limit with no filters.
func (m *Machine) Load(ctx context.Context) error {
	m.mu.Lock()
	limit := m.form.EffectiveLimit()
	m.mu.Unlock()
	return m.fetch(ctx, config.FirstPage, limit, Filters{})
}

// Refresh reloads page 1 at the form limit without filters.
func (m *Machine) Refresh(ctx context.Context) error {
	return m.Load(ctx)
}

// ApplyFilters closes the filter modal and fetches page 1 with the form's
// filters. An invalid form leaves the applied filters untouched.
func (m *Machine) ApplyFilters(ctx context.Context) error {
	m.mu.Lock()
	filters, err := m.form.Filters()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	limit := m.form.EffectiveLimit()
	m.modalOpen = false
	m.mu.Unlock()
	return m.fetch(ctx, config.FirstPage, limit, filters)
}

// ClearFilters resets the form and fetches the unfiltered first page.
func (m *Machine) ClearFilters(ctx context.Context) error {
	m.mu.Lock()
	m.form = DefaultForm()
	limit := m.form.Limit
	m.mu.Unlock()
	return m.fetch(ctx, config.FirstPage, limit, Filters{})
}

// NextPage fetches the following page with the last applied filters. It is a
// no-op while loading or when there is no next page.
func (m *Machine) NextPage(ctx context.Context) error {
	return m.step(ctx, 1)
}

// PrevPage is NextPage in the other direction.
func (m *Machine) PrevPage(ctx context.Context) error {
	return m.step(ctx, -1)
}

func (m *Machine) step(ctx context.Context, delta int) error {
	m.mu.Lock()
	p := m.pagination
	if m.state == StateLoading || p == nil || (delta > 0 && !p.HasNext) || (delta < 0 && !p.HasPrev) {
		m.mu.Unlock()
		return nil
	}
	limit := p.Limit
	if limit == 0 {
		limit = m.limit
	}
	filters := m.applied.Clone()
	m.mu.Unlock()
	return m.fetch(ctx, p.Page+delta, limit, filters)
}

func (m *Machine) fetch(ctx context.Context, page, limit int, filters Filters) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state = StateLoading
	m.applied = filters
	m.limit = limit
	m.lastErr = nil
	m.mu.Unlock()
	m.notify()

	res, err := m.fetcher.Fetch(ctx, page, limit, filters)

	m.mu.Lock()
	defer m.notify()
	defer m.mu.Unlock()

	if gen != m.gen || errors.Is(err, ErrSuperseded) {
		if gen == m.gen {
			// The caller gave up on the latest fetch; settle on what is shown.
			m.state = m.settled()
		}
		return ErrSuperseded
	}
	if err != nil {
		m.state = StateFailed
		m.items = nil
		m.pagination = nil
		m.server = nil
		m.lastErr = err
		m.carousel.Reset(0)
		return err
	}

	m.items = res.Page.Items
	m.pagination = res.Page.Pagination
	m.server = res.Page.Filters
	m.loaded = true
	m.carousel.Reset(len(m.items))
	m.state = m.settled()
	m.logger.Debug("feed loaded",
		slog.Int("page", page),
		slog.Int("items", len(m.items)),
		slog.Uint64("seq", res.Seq))
	return nil
}

func (m *Machine) settled() State {
	switch {
	case m.lastErr != nil:
		return StateFailed
	case len(m.items) > 0:
		return StatePopulated
	case m.loaded:
		return StateEmpty
	}
	return StateIdle
}

// Remove drops the profile with id from the visible page, keeping the
// carousel in range. It reports whether the profile was present.
func (m *Machine) Remove(id string) bool {
	m.mu.Lock()
	i := slices.IndexFunc(m.items, func(p models.Profile) bool { return p.ID == id })
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	m.items = slices.Delete(slices.Clone(m.items), i, i+1)
	m.carousel.Resize(len(m.items))
	if m.state != StateLoading {
		m.state = m.settled()
	}
	m.mu.Unlock()
	m.notify()
	return true
}

// EditForm mutates the filter form under the machine lock. Edits never
// trigger a fetch.
func (m *Machine) EditForm(edit func(*FilterForm) error) error {
	m.mu.Lock()
	err := edit(&m.form)
	m.mu.Unlock()
	m.notify()
	return err
}

func (m *Machine) OpenFilters()  { m.setModal(true) }
func (m *Machine) CloseFilters() { m.setModal(false) }

func (m *Machine) setModal(open bool) {
	m.mu.Lock()
	m.modalOpen = open
	m.mu.Unlock()
	m.notify()
}

// NextCard, PrevCard and SelectCard move the carousel; they report whether
// the active card changed.
func (m *Machine) NextCard() bool { return m.moveCard((*Carousel).Next) }
func (m *Machine) PrevCard() bool { return m.moveCard((*Carousel).Prev) }

func (m *Machine) SelectCard(i int) bool {
	return m.moveCard(func(c *Carousel) bool { return c.Select(i) })
}

func (m *Machine) moveCard(move func(*Carousel) bool) bool {
	m.mu.Lock()
	moved := move(&m.carousel)
	m.mu.Unlock()
	if moved {
		m.notify()
	}
	return moved
}

// Snapshot copies the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		State:       m.state,
		Items:       slices.Clone(m.items),
		Applied:     m.applied.Clone(),
		Form:        m.form.clone(),
		ActiveIndex: m.carousel.Index(),
		ModalOpen:   m.modalOpen,
		Err:         m.lastErr,
	}
	if m.pagination != nil {
		p := *m.pagination
		s.Pagination = &p
	}
	if m.server != nil {
		f := *m.server
		s.Server = &f
	}
	return s
}

// Close cancels any fetch in flight.
func (m *Machine) Close() {
	m.fetcher.Cancel()
}
