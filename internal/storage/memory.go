package storage

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"devmatch/client/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-process Storage. Returned values are copies.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	byEmail  map[string]string
	requests map[string]models.ConnectionRequest
	rooms    map[string]models.ChatRoom
	history  map[string][]models.ChatHistory
	nextMsg  uint
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]models.Profile),
		byEmail:  make(map[string]string),
		requests: make(map[string]models.ConnectionRequest),
		rooms:    make(map[string]models.ChatRoom),
		history:  make(map[string][]models.ChatHistory),
		now:      time.Now,
	}
}

func cloneProfile(p models.Profile) models.Profile {
	p.Skills = slices.Clone(p.Skills)
	if p.Age != nil {
		age := *p.Age
		p.Age = &age
	}
	return p
}

func (m *Memory) CreateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(p.EmailID)
	if email != "" {
		if _, ok := m.byEmail[email]; ok {
			return ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := m.profiles[p.ID]; ok {
		return ErrDuplicate
	}
	m.profiles[p.ID] = cloneProfile(*p)
	if email != "" {
		m.byEmail[email] = p.ID
	}
	return nil
}

func (m *Memory) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

func (m *Memory) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	m.mu.RLock()
	id, ok := m.byEmail[strings.ToLower(email)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetProfile(ctx, id)
}

func (m *Memory) UpdateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.profiles[p.ID]
	if !ok {
		return ErrNotFound
	}
	newEmail := strings.ToLower(p.EmailID)
	if oldEmail := strings.ToLower(old.EmailID); newEmail != oldEmail {
		if _, taken := m.byEmail[newEmail]; taken {
			return ErrDuplicate
		}
		delete(m.byEmail, oldEmail)
		m.byEmail[newEmail] = p.ID
	}
	m.profiles[p.ID] = cloneProfile(*p)
	return nil
}

func (m *Memory) GetProfiles(_ context.Context, ids []string) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, cloneProfile(p))
		}
	}
	sortProfiles(out)
	return out, nil
}

func sortProfiles(ps []models.Profile) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].FirstName != ps[j].FirstName {
			return ps[i].FirstName < ps[j].FirstName
		}
		return ps[i].ID < ps[j].ID
	})
}

func (m *Memory) FeedCandidates(_ context.Context, q FeedQuery) ([]models.Profile, int, error) {
	m.mu.RLock()
	var matched []models.Profile
	for id, p := range m.profiles {
		if slices.Contains(q.Exclude, id) || !q.Match(p) {
			continue
		}
		matched = append(matched, cloneProfile(p))
	}
	m.mu.RUnlock()

	sortProfiles(matched)
	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *Memory) SaveRequest(_ context.Context, r *models.ConnectionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, ok := m.requests[r.ID]; ok {
		return ErrDuplicate
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.requests[r.ID] = *r
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*models.ConnectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) UpdateRequestStatus(_ context.Context, id string, status models.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	m.requests[id] = r
	return nil
}

func (m *Memory) RequestBetween(_ context.Context, a, b string) (*models.ConnectionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests {
		if (r.FromUserID == a && r.ToUserID == b) || (r.FromUserID == b && r.ToUserID == a) {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) filterRequests(keep func(models.ConnectionRequest) bool) []models.ConnectionRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ConnectionRequest
	for _, r := range m.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) PendingFor(_ context.Context, userID string) ([]models.ConnectionRequest, error) {
	return m.filterRequests(func(r models.ConnectionRequest) bool {
		return r.ToUserID == userID && r.Status == models.StatusInterested
	}), nil
}

func (m *Memory) ConnectionIDs(_ context.Context, userID string) ([]string, error) {
	return otherSides(m.filterRequests(func(r models.ConnectionRequest) bool {
		return r.Status == models.StatusAccepted && (r.FromUserID == userID || r.ToUserID == userID)
	}), userID), nil
}

func (m *Memory) RelatedUserIDs(_ context.Context, userID string) ([]string, error) {
	return otherSides(m.filterRequests(func(r models.ConnectionRequest) bool {
		return r.FromUserID == userID || r.ToUserID == userID
	}), userID), nil
}

func (m *Memory) SaveRoom(_ context.Context, room *models.ChatRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.RoomID]; !ok {
		m.rooms[room.RoomID] = *room
	}
	return nil
}

func (m *Memory) GetRoom(_ context.Context, roomID string) (*models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (m *Memory) SaveMessage(_ context.Context, msg *models.ChatHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMsg++
	msg.ID = m.nextMsg
	now := m.now()
	msg.CreatedAt, msg.UpdatedAt = now, now
	m.history[msg.RoomID] = append(m.history[msg.RoomID], *msg)
	return nil
}

func (m *Memory) GetChatHistory(_ context.Context, roomID string) ([]models.ChatHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.history[roomID]), nil
}
