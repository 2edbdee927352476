package handler

import (
	"net/http"
	"strconv"
	"strings"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
	"devmatch/client/internal/storage"

	"github.com/gin-gonic/gin"
)

// Feed lists profiles the user has no request with yet.
func (h *Handler) Feed(c *gin.Context) {
	page := intQuery(c, "page", config.FirstPage)
	if page < config.FirstPage {
		page = config.FirstPage
	}
	limit := intQuery(c, "limit", config.DefaultLimit)
	limit = min(max(limit, config.MinLimit), config.MaxLimit)

	applied := models.AppliedFilters{Gender: c.Query("gender")}
	q := storage.FeedQuery{Gender: applied.Gender, Offset: (page - 1) * limit, Limit: limit}

	if raw := c.Query("skills"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Skills = append(q.Skills, s)
			}
		}
		applied.Skills = strings.Join(q.Skills, ",")
	}
	for _, bound := range []struct {
		key string
		dst **int
	}{{"minAge", &q.MinAge}, {"maxAge", &q.MaxAge}} {
		raw := c.Query(bound.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			fail(c, http.StatusBadRequest, bound.key+" must be a non-negative number")
			return
		}
		*bound.dst = &v
	}
	applied.MinAge, applied.MaxAge = q.MinAge, q.MaxAge
	if q.MinAge != nil && q.MaxAge != nil && *q.MinAge > *q.MaxAge {
		fail(c, http.StatusBadRequest, "minAge cannot exceed maxAge")
		return
	}
	switch applied.Gender {
	case "", models.GenderAll, models.GenderMale, models.GenderFemale, models.GenderOther:
	default:
		fail(c, http.StatusBadRequest, "unknown gender")
		return
	}

	ctx := c.Request.Context()
	me := currentUser(c)
	related, err := h.Storage.RelatedUserIDs(ctx, me)
	if err != nil {
		h.storageFail(c, err, "requests")
		return
	}
	q.Exclude = append(related, me)

	items, total, err := h.Storage.FeedCandidates(ctx, q)
	if err != nil {
		h.storageFail(c, err, "feed")
		return
	}
	if items == nil {
		items = []models.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       items,
		"pagination": models.NewPagination(page, limit, total),
		"filters":    applied,
	})
}

// intQuery reads an integer query parameter. Missing or malformed values give fallback.
func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
