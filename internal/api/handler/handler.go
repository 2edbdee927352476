// Package handler is the HTTP surface of the dev backend: the REST routes the
// client consumes and the Socket.IO upgrade.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"devmatch/client/internal/chathub"
	"devmatch/client/internal/config"
	"devmatch/client/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the backend's collaborators.
type Handler struct {
	Storage storage.Storage
	Hub     *chathub.ManagerService

	// PingInterval and PingTimeout are advertised to socket clients.
	PingInterval time.Duration
	PingTimeout  time.Duration

	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

func NewHandler(s storage.Storage, hub *chathub.ManagerService, jwtSecret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Storage:      s,
		Hub:          hub,
		PingInterval: config.PingInterval,
		PingTimeout:  config.PingTimeout,
		secret:       []byte(jwtSecret),
		logger:       logger.With(slog.String("component", "api")),
		now:          time.Now,
	}
}

// Routes registers every route on r.
func (h *Handler) Routes(r gin.IRouter) {
	r.POST("/signUp", h.SignUp)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	auth := r.Group("/", h.Authenticate)
	auth.GET("/profile", h.GetProfile)
	auth.PATCH("/profile/edit", h.EditProfile)
	auth.GET("/user/feed", h.Feed)
	auth.GET("/user/requests/pending", h.PendingRequests)
	auth.GET("/user/requests/my-connection", h.Connections)
	auth.POST("/request/send/:status/:userId", h.SendRequest)
	auth.POST("/request/review/:status/:requestId", h.ReviewRequest)
	auth.GET("/toChat/:targetUserId", h.ChatHistory)

	auth.GET("/socket.io/", h.ServeSocket)
	auth.GET("/api/socket.io/", h.ServeSocket)
}

// NewRouter builds a gin engine with the routes installed.
func (h *Handler) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog)
	h.Routes(r)
	return r
}

func (h *Handler) requestLog(c *gin.Context) {
	start := h.now()
	c.Next()
	h.logger.Debug("request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("took", h.now().Sub(start)),
		slog.String("request_id", c.GetHeader("X-Request-ID")))
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// storageFail maps a storage error to a response.
func (h *Handler) storageFail(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrDuplicate):
		fail(c, http.StatusConflict, what+" already exists")
	default:
		h.logger.Error("storage failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
