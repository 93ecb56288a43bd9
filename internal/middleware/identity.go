package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"community-chat-service/internal/models"
)

// Context keys set by IdentityMiddleware.
const (
	ParticipantIDKey = "participantID"
	DisplayNameKey   = "displayName"
	RoleKey          = "role"
)

// IdentityMiddleware resolves the caller identity from headers. Session and
// token validation belong to the auth layer in front of this service; this
// only reads what that layer forwards.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID := c.GetHeader("X-Participant-ID")
		if participantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing participant identity"})
			return
		}

		role := models.Role(c.GetHeader("X-Role"))
		if !role.Valid() {
			role = models.RoleParticipant
		}

		c.Set(ParticipantIDKey, participantID)
		c.Set(DisplayNameKey, c.GetHeader("X-Display-Name"))
		c.Set(RoleKey, role)
		c.Next()
	}
}

// RequireModerator aborts unless the resolved role may moderate.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(RoleKey)
		if !ok || !role.(models.Role).CanModerate() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "moderator role required"})
			return
		}
		c.Next()
	}
}
