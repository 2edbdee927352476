package models

import (
	"fmt"
	"time"
)

// RequestStatus is the state of a connection request.
type RequestStatus string

const (
	StatusInterested RequestStatus = "interested"
	StatusIgnored    RequestStatus = "ignored"
	StatusAccepted   RequestStatus = "accepted"
	StatusRejected   RequestStatus = "rejected"
)

// ValidateSend checks a status used with POST /request/send/:status/:userId.
func (s RequestStatus) ValidateSend() error {
	switch s {
	case StatusInterested, StatusIgnored:
		return nil
	}
	return fmt.Errorf("invalid send status %q", s)
}

// ValidateReview checks a status used with POST /request/review/:status/:requestId.
func (s RequestStatus) ValidateReview() error {
	switch s {
	case StatusAccepted, StatusRejected:
		return nil
	}
	return fmt.Errorf("invalid review status %q", s)
}

// ConnectionRequest is a stored request in the dev backend.
type ConnectionRequest struct {
	ID         string        `gorm:"primaryKey"`
	FromUserID string        `gorm:"index"`
	ToUserID   string        `gorm:"index"`
	Status     RequestStatus `gorm:"type:text"`
	CreatedAt  time.Time
}

// PendingRequest is one entry of GET /user/requests/pending, with the sender populated.
type PendingRequest struct {
	ID         string  `json:"id"`
	FromUserID Profile `json:"fromUserId"`
	ToUserID   string  `json:"toUserId"`
	Status     string  `json:"status"`
}

// Ack is the acknowledgment body returned by mutating endpoints.
type Ack struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
