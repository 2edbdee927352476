package handler

import (
	"errors"
	"net/http"

	"devmatch/client/internal/models"
	"devmatch/client/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) SendRequest(c *gin.Context) {
	status := models.RequestStatus(c.Param("status"))
	if err := status.ValidateSend(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	me, target := currentUser(c), c.Param("userId")
	if target == me {
		fail(c, http.StatusBadRequest, "cannot send a request to yourself")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Storage.GetProfile(ctx, target); err != nil {
		h.storageFail(c, err, "user")
		return
	}
	switch _, err := h.Storage.RequestBetween(ctx, me, target); {
	case err == nil:
		fail(c, http.StatusConflict, "request already exists")
		return
	case !errors.Is(err, storage.ErrNotFound):
		h.storageFail(c, err, "request")
		return
	}

	req := &models.ConnectionRequest{
		ID:         uuid.NewString(),
		FromUserID: me,
		ToUserID:   target,
		Status:     status,
		CreatedAt:  h.now(),
	}
	if err := h.Storage.SaveRequest(ctx, req); err != nil {
		h.storageFail(c, err, "request")
		return
	}
	c.JSON(http.StatusOK, models.Ack{Message: "request " + string(status), Data: req})
}

// ReviewRequest answers an interested request addressed to the current user.
func (h *Handler) ReviewRequest(c *gin.Context) {
	status := models.RequestStatus(c.Param("status"))
	if err := status.ValidateReview(); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	req, err := h.Storage.GetRequest(ctx, c.Param("requestId"))
	if err != nil {
		h.storageFail(c, err, "request")
		return
	}
	if req.ToUserID != currentUser(c) || req.Status != models.StatusInterested {
		fail(c, http.StatusNotFound, "request not found")
		return
	}
	if err := h.Storage.UpdateRequestStatus(ctx, req.ID, status); err != nil {
		h.storageFail(c, err, "request")
		return
	}
	req.Status = status
	c.JSON(http.StatusOK, models.Ack{Message: "request " + string(status), Data: req})
}

// PendingRequests lists interested requests sent to the user, senders populated.
func (h *Handler) PendingRequests(c *gin.Context) {
	ctx := c.Request.Context()
	reqs, err := h.Storage.PendingFor(ctx, currentUser(c))
	if err != nil {
		h.storageFail(c, err, "requests")
		return
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.FromUserID)
	}
	senders, err := h.profilesByID(c, ids)
	if err != nil {
		return
	}

	out := make([]models.PendingRequest, 0, len(reqs))
	for _, r := range reqs {
		from, ok := senders[r.FromUserID]
		if !ok {
			continue
		}
		out = append(out, models.PendingRequest{
			ID:         r.ID,
			FromUserID: from,
			ToUserID:   r.ToUserID,
			Status:     string(r.Status),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) Connections(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := h.Storage.ConnectionIDs(ctx, currentUser(c))
	if err != nil {
		h.storageFail(c, err, "connections")
		return
	}
	profiles, err := h.Storage.GetProfiles(ctx, ids)
	if err != nil {
		h.storageFail(c, err, "connections")
		return
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"data": profiles})
}

// profilesByID loads ids keyed by id. On failure the response is already written.
func (h *Handler) profilesByID(c *gin.Context, ids []string) (map[string]models.Profile, error) {
	profiles, err := h.Storage.GetProfiles(c.Request.Context(), ids)
	if err != nil {
		h.storageFail(c, err, "users")
		return nil, err
	}
	out := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}
