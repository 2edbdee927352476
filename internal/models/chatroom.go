package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// ChatRoom is the one-to-one conversation between two users.
type ChatRoom struct {
	// RoomID is RoomID(User1ID, User2ID).
	RoomID string `gorm:"primaryKey"`
	// User1ID and User2ID are stored in sorted order.
	User1ID   string `gorm:"index"`
	User2ID   string `gorm:"index"`
	StartedAt time.Time
}

// RoomID derives the room key for a pair of users. The key does not depend on
// argument order, so both participants land in the same room whoever joins first.
func RoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	sum := sha256.Sum256([]byte(strings.Join(ids, "_")))
	return hex.EncodeToString(sum[:])
}

// NewChatRoom builds the room row for a pair of users.
func NewChatRoom(a, b string, now time.Time) *ChatRoom {
	ids := []string{a, b}
	sort.Strings(ids)
	return &ChatRoom{
		RoomID:    RoomID(a, b),
		User1ID:   ids[0],
		User2ID:   ids[1],
		StartedAt: now,
	}
}

// Has reports whether userID participates in the room.
func (r *ChatRoom) Has(userID string) bool {
	return r.User1ID == userID || r.User2ID == userID
}
