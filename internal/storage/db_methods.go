package storage

import (
	"context"

	"devmatch/client/internal/models"

	"gorm.io/gorm/clause"
)

// SaveRequest inserts a new connection request.
func (s *Service) SaveRequest(ctx context.Context, r *models.ConnectionRequest) error {
	return translate(s.DB.WithContext(ctx).Create(r).Error)
}

func (s *Service) GetRequest(ctx context.Context, id string) (*models.ConnectionRequest, error) {
	var r models.ConnectionRequest
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Service) UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	res := s.DB.WithContext(ctx).Model(&models.ConnectionRequest{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RequestBetween finds a request in either direction between a and b.
func (s *Service) RequestBetween(ctx context.Context, a, b string) (*models.ConnectionRequest, error) {
	var r models.ConnectionRequest
	err := s.DB.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// PendingFor lists requests sent to userID that wait for a review.
func (s *Service) PendingFor(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	var out []models.ConnectionRequest
	err := s.DB.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", userID, models.StatusInterested).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// ConnectionIDs lists the users with an accepted request to or from userID.
func (s *Service) ConnectionIDs(ctx context.Context, userID string) ([]string, error) {
	var reqs []models.ConnectionRequest
	err := s.DB.WithContext(ctx).
		Where("status = ? AND (from_user_id = ? OR to_user_id = ?)", models.StatusAccepted, userID, userID).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return otherSides(reqs, userID), nil
}

// RelatedUserIDs lists everyone userID has a request with, in any status.
func (s *Service) RelatedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var reqs []models.ConnectionRequest
	err := s.DB.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return otherSides(reqs, userID), nil
}

func otherSides(reqs []models.ConnectionRequest, userID string) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if r.FromUserID == userID {
			out = append(out, r.ToUserID)
		} else {
			out = append(out, r.FromUserID)
		}
	}
	return out
}

// SaveRoom stores the room once; later saves keep the original row.
func (s *Service) SaveRoom(ctx context.Context, room *models.ChatRoom) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(room).Error
}

func (s *Service) GetRoom(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// SaveMessage stores msg and fills in its ID and CreatedAt.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatHistory) error {
	return s.DB.WithContext(ctx).Create(msg).Error
}

// GetChatHistory returns a room's messages oldest first.
func (s *Service) GetChatHistory(ctx context.Context, roomID string) ([]models.ChatHistory, error) {
	var history []models.ChatHistory
	err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at asc, id asc").Find(&history).Error
	return history, err
}
