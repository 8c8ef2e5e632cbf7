package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pitchstudio/deck-api/internal/middleware"
)

// actorFromContext reads the caller identity forwarded by the admin console
// gateway. Empty when the request is anonymous.
func actorFromContext(c *gin.Context) string {
	return c.GetHeader(middleware.ActorHeader)
}
