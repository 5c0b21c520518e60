package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/refdesk/refdesk-api/internal/middleware"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the acting user for delegation operations.
func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
		actor.RefereeID = claims.RefereeID
		actor.Role = claims.Role
	}
	return actor
}
