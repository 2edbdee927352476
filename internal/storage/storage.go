package storage

import (
	"context"
	"errors"
	"strings"

	"devmatch/client/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: already exists")
)

// Storage is the persistence layer of the dev backend.
type Storage interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
	GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error)
	FeedCandidates(ctx context.Context, q FeedQuery) ([]models.Profile, int, error)

	SaveRequest(ctx context.Context, r *models.ConnectionRequest) error
	GetRequest(ctx context.Context, id string) (*models.ConnectionRequest, error)
	UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error
	RequestBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error)
	PendingFor(ctx context.Context, userID string) ([]models.ConnectionRequest, error)
	ConnectionIDs(ctx context.Context, userID string) ([]string, error)
	RelatedUserIDs(ctx context.Context, userID string) ([]string, error)

	SaveRoom(ctx context.Context, room *models.ChatRoom) error
	GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error)
	SaveMessage(ctx context.Context, msg *models.ChatHistory) error
	GetChatHistory(ctx context.Context, roomID string) ([]models.ChatHistory, error)
}

var (
	_ Storage = (*Service)(nil)
	_ Storage = (*Memory)(nil)
)

// FeedQuery selects feed candidates for a viewer.
type FeedQuery struct {
	// Exclude lists ids never returned, the viewer included.
	Exclude []string
	// Skills matches profiles with at least one of them, case-insensitively.
	Skills []string
	MinAge *int
	MaxAge *int
	// Gender is empty or "all" for any.
	Gender string
	Offset int
	Limit  int
}

// Match reports whether p passes the filters. Exclusion and paging are not
// checked here.
func (q FeedQuery) Match(p models.Profile) bool {
	if len(q.Skills) > 0 {
		found := false
		for _, s := range q.Skills {
			if p.HasSkill(s) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.MinAge != nil && (p.Age == nil || *p.Age < *q.MinAge) {
		return false
	}
	if q.MaxAge != nil && (p.Age == nil || *p.Age > *q.MaxAge) {
		return false
	}
	if q.Gender != "" && q.Gender != models.GenderAll && p.Gender != q.Gender {
		return false
	}
	return true
}

// Service is the gorm/postgres Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService wraps an open database. Open it with TranslateError set
// so unique violations map to ErrDuplicate.
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Profile{},
		&models.ConnectionRequest{},
		&models.ChatRoom{},
		&models.ChatHistory{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *Service) CreateProfile(ctx context.Context, p *models.Profile) error {
	return translate(s.DB.WithContext(ctx).Create(p).Error)
}

func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("lower(email_id) = ?", strings.ToLower(email)).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, p *models.Profile) error {
	return translate(s.DB.WithContext(ctx).Save(p).Error)
}

func (s *Service) GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	var out []models.Profile
	if len(ids) == 0 {
		return out, nil
	}
	err := s.DB.WithContext(ctx).Where("id IN ?", ids).Order("first_name, id").Find(&out).Error
	return out, translate(err)
}

// FeedCandidates returns one page of matching profiles and the total count.
func (s *Service) FeedCandidates(ctx context.Context, q FeedQuery) ([]models.Profile, int, error) {
	tx := s.DB.WithContext(ctx).Model(&models.Profile{})
	if len(q.Exclude) > 0 {
		tx = tx.Where("id NOT IN ?", q.Exclude)
	}
	if len(q.Skills) > 0 {
		lowered := make([]string, len(q.Skills))
		for i, sk := range q.Skills {
			lowered[i] = strings.ToLower(sk)
		}
		tx = tx.Where("EXISTS (SELECT 1 FROM unnest(skills) AS sk WHERE lower(sk) = ANY(?))", pq.Array(lowered))
	}
	if q.MinAge != nil {
		tx = tx.Where("age >= ?", *q.MinAge)
	}
	if q.MaxAge != nil {
		tx = tx.Where("age <= ?", *q.MaxAge)
	}
	if q.Gender != "" && q.Gender != models.GenderAll {
		tx = tx.Where("gender = ?", q.Gender)
	}

	tx = tx.Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Profile
	if err := tx.Order("first_name, id").Offset(q.Offset).Limit(q.Limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}
