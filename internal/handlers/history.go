package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"community-chat-service/internal/repositories"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HistoryHandler serves the authoritative recent-history window used by
// initial load and fallback polling.
type HistoryHandler struct {
	messages repositories.MessageRepository
}

// NewHistoryHandler builds a HistoryHandler.
func NewHistoryHandler(messages repositories.MessageRepository) *HistoryHandler {
	return &HistoryHandler{messages: messages}
}

// GetRecentHistory returns up to limit messages, most recent last.
func (h *HistoryHandler) GetRecentHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	msgs, err := h.messages.RecentHistory(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
