package handler

import (
	"net/http"
	"strings"

	"devmatch/client/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Storage.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		h.storageFail(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *Handler) EditProfile(c *gin.Context) {
	var edit models.ProfileEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateEdit(edit); msg != "" {
		fail(c, http.StatusBadRequest, msg)
		return
	}

	ctx := c.Request.Context()
	p, err := h.Storage.GetProfile(ctx, currentUser(c))
	if err != nil {
		h.storageFail(c, err, "profile")
		return
	}
	edit.Apply(p)
	if err := h.Storage.UpdateProfile(ctx, p); err != nil {
		h.storageFail(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "data": p})
}

func validateEdit(e models.ProfileEdit) string {
	if e.FirstName != nil && strings.TrimSpace(*e.FirstName) == "" {
		return "first name cannot be empty"
	}
	if e.Age != nil && (*e.Age < 18 || *e.Age > 120) {
		return "age must be between 18 and 120"
	}
	if e.Gender != nil {
		switch *e.Gender {
		case models.GenderMale, models.GenderFemale, models.GenderOther:
		default:
			return "gender must be male, female or others"
		}
	}
	for _, s := range e.Skills {
		if strings.TrimSpace(s) == "" {
			return "skills cannot be empty"
		}
	}
	return ""
}
