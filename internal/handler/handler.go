package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"counseling-scheduler-api/internal/store"
)

type Handler struct {
	store  *store.Store
	secret string
}

func New(st *store.Store, secret string) *Handler {
	return &Handler{store: st, secret: secret}
}

func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Counseling Scheduler API",
		"status":  "active",
	})
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "API is running"})
}

func fail(c *gin.Context, code int, message, detail string) {
	c.JSON(code, gin.H{"message": message, "error": detail})
}
