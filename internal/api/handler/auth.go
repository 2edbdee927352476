package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"devmatch/client/internal/config"
	"devmatch/client/internal/models"
	"devmatch/client/internal/storage"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer     = "devmatch-fakeapi"
	userIDKey  = "userID"
	bcryptCost = bcrypt.DefaultCost
)

var errBadToken = errors.New("invalid session token")

// generateJWT signs a session token for userID.
func (h *Handler) generateJWT(userID string) (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(config.SessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// validateJWT returns the user id of a valid token.
func (h *Handler) validateJWT(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(h.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", errBadToken
	}
	return claims.Subject, nil
}

func (h *Handler) setSession(c *gin.Context, userID string) error {
	token, err := h.generateJWT(userID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(config.SessionCookie, token, int(config.SessionTTL.Seconds()), "/", "", false, true)
	return nil
}

// Authenticate rejects requests without a valid session cookie and stores the
// user id for the handlers behind it.
func (h *Handler) Authenticate(c *gin.Context) {
	raw, err := c.Cookie(config.SessionCookie)
	if err != nil || raw == "" {
		fail(c, http.StatusUnauthorized, "please log in")
		return
	}
	userID, err := h.validateJWT(raw)
	if err != nil {
		fail(c, http.StatusUnauthorized, "session expired")
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUp
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	p := &models.Profile{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		EmailID:      strings.ToLower(strings.TrimSpace(req.EmailID)),
		PasswordHash: string(hash),
		Skills:       []string{},
	}
	if err := h.Storage.CreateProfile(c.Request.Context(), p); err != nil {
		h.storageFail(c, err, "account")
		return
	}
	if err := h.setSession(c, p.ID); err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account created", "data": p})
}

func (h *Handler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.Storage.GetProfileByEmail(c.Request.Context(), req.EmailID)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.storageFail(c, err, "account")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := h.setSession(c, p.ID); err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged in", "data": p})
}

// Logout clears the session cookie. It succeeds without a session too.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(config.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, models.Ack{Message: "logged out"})
}
