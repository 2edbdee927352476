package models

import "gorm.io/gorm"

// ChatHistory is a stored chat message in the dev backend.
// The embedded gorm.Model provides ID and CreatedAt, which give history its order.
type ChatHistory struct {
	gorm.Model

	// RoomID is the room the message was sent to.
	RoomID string `gorm:"type:text;not null;index:idx_room_msg"`
	// SenderID is the profile id of the author.
	SenderID string `gorm:"type:text;not null;index:idx_room_msg"`
	// Text is the message body.
	Text string `gorm:"type:text;not null"`
}

// Sender is the populated author of a history record.
type Sender struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// HistoryRecord is one entry of GET /toChat/:targetUserId.
type HistoryRecord struct {
	SenderID Sender `json:"senderId"`
	Text     string `json:"text"`
}

// ChatHistoryResponse is the body of GET /toChat/:targetUserId.
type ChatHistoryResponse struct {
	Messages []HistoryRecord `json:"messages"`
}
