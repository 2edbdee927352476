package handler

import (
	"net/http"

	"devmatch/client/internal/models"

	"github.com/gin-gonic/gin"
)

// ChatHistory returns the stored conversation between the user and the
// target, oldest first, senders populated.
func (h *Handler) ChatHistory(c *gin.Context) {
	ctx := c.Request.Context()
	me, target := currentUser(c), c.Param("targetUserId")
	if _, err := h.Storage.GetProfile(ctx, target); err != nil {
		h.storageFail(c, err, "user")
		return
	}

	history, err := h.Storage.GetChatHistory(ctx, models.RoomID(me, target))
	if err != nil {
		h.storageFail(c, err, "chat")
		return
	}
	senders, err := h.profilesByID(c, []string{me, target})
	if err != nil {
		return
	}

	out := make([]models.HistoryRecord, 0, len(history))
	for _, m := range history {
		p := senders[m.SenderID]
		out = append(out, models.HistoryRecord{
			SenderID: models.Sender{ID: m.SenderID, FirstName: p.FirstName, LastName: p.LastName},
			Text:     m.Text,
		})
	}
	c.JSON(http.StatusOK, models.ChatHistoryResponse{Messages: out})
}
