package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"devmatch/client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomID_IsSymmetric(t *testing.T) {
	ab := models.RoomID("alice", "bob")
	ba := models.RoomID("bob", "alice")

	assert.Equal(t, ab, ba)
	assert.Len(t, ab, 64, "hex encoded sha256")
	assert.NotEqual(t, ab, models.RoomID("alice", "carol"))
}

func TestNewChatRoom_SortsParticipants(t *testing.T) {
	room := models.NewChatRoom("zed", "amy", time.Unix(0, 0))

	assert.Equal(t, "amy", room.User1ID)
	assert.Equal(t, "zed", room.User2ID)
	assert.Equal(t, models.RoomID("amy", "zed"), room.RoomID)
	assert.True(t, room.Has("zed"))
	assert.False(t, room.Has("bob"))
}

func TestFromHistory_KeepsAllFields(t *testing.T) {
	var resp models.ChatHistoryResponse
	raw := `{"messages":[{"senderId":{"firstName":"A","lastName":"B"},"text":"hi"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Len(t, resp.Messages, 1)

	msg := models.FromHistory(resp.Messages[0])

	assert.Equal(t, "A", msg.FirstName)
	assert.Equal(t, "B", msg.LastName)
	assert.Equal(t, "hi", msg.Text)
	assert.Empty(t, msg.SenderID)
}

func TestFromEvent(t *testing.T) {
	msg := models.FromEvent(models.MessageReceived{FirstName: "C", LastName: "D", Text: "yo", SenderID: "u2"})

	assert.Equal(t, models.Message{FirstName: "C", LastName: "D", Text: "yo", SenderID: "u2"}, msg)
}

func TestRequestStatusValidation(t *testing.T) {
	assert.NoError(t, models.StatusInterested.ValidateSend())
	assert.NoError(t, models.StatusIgnored.ValidateSend())
	assert.Error(t, models.StatusAccepted.ValidateSend())

	assert.NoError(t, models.StatusAccepted.ValidateReview())
	assert.NoError(t, models.StatusRejected.ValidateReview())
	assert.Error(t, models.StatusInterested.ValidateReview())
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name             string
		page, limit, tot int
		pages            int
		hasNext, hasPrev bool
	}{
		{"empty", 1, 10, 0, 0, false, false},
		{"single page", 1, 10, 7, 1, false, false},
		{"first of three", 1, 10, 25, 3, true, false},
		{"middle", 2, 10, 25, 3, true, true},
		{"last", 3, 10, 25, 3, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.NewPagination(tt.page, tt.limit, tt.tot)
			assert.Equal(t, tt.pages, p.TotalPages)
			assert.Equal(t, tt.hasNext, p.HasNext)
			assert.Equal(t, tt.hasPrev, p.HasPrev)
		})
	}
}

func TestAppliedFiltersActive(t *testing.T) {
	var nilFilters *models.AppliedFilters
	assert.False(t, nilFilters.Active())
	assert.False(t, (&models.AppliedFilters{Gender: models.GenderAll}).Active())
	assert.True(t, (&models.AppliedFilters{Skills: "go"}).Active())
}
