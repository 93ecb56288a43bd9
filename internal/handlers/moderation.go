package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"community-chat-service/internal/middleware"
	"community-chat-service/internal/relay"
)

// ModerationHandler exposes moderator-only actions. Every action persists
// first, then the relay pushes a targeted notification to the audience so
// connected clients react without a reload.
type ModerationHandler struct {
	relay *relay.Relay
}

// NewModerationHandler builds a ModerationHandler.
func NewModerationHandler(relay *relay.Relay) *ModerationHandler {
	return &ModerationHandler{relay: relay}
}

// SetBanned sets or clears the permanent ban for a participant.
func (h *ModerationHandler) SetBanned(c *gin.Context) {
	participantID := c.Param("participant_id")

	var req struct {
		Banned *bool `json:"banned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.relay.SetBanned(c.Request.Context(), actorID(c), participantID, *req.Banned)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update ban state"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// SetTimeout mutes a participant for the given number of minutes. Zero
// minutes clears an active timeout.
func (h *ModerationHandler) SetTimeout(c *gin.Context) {
	participantID := c.Param("participant_id")

	var req struct {
		Minutes *int `json:"minutes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Minutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minutes must not be negative"})
		return
	}

	until := int64(0)
	if *req.Minutes > 0 {
		until = time.Now().Add(time.Duration(*req.Minutes) * time.Minute).UnixMilli()
	}

	state, err := h.relay.SetTimeout(c.Request.Context(), actorID(c), participantID, until)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update timeout"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// DeleteMessage hard-removes one message. Idempotent: deleting an unknown
// id succeeds.
func (h *ModerationHandler) DeleteMessage(c *gin.Context) {
	messageID := c.Param("message_id")

	if err := h.relay.DeleteMessage(c.Request.Context(), actorID(c), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearHistory wipes the entire chat log.
func (h *ModerationHandler) ClearHistory(c *gin.Context) {
	if err := h.relay.ClearHistory(c.Request.Context(), actorID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear history"})
		return
	}

	c.Status(http.StatusNoContent)
}

func actorID(c *gin.Context) string {
	return c.GetString(middleware.ParticipantIDKey)
}
