package middleware

import (
	"net/http"
	"strings"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/services"

	"github.com/gin-gonic/gin"
)

// GuestAuthMiddleware requires a valid guest token and stores its claims in
// the request context.
func GuestAuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, authService)
		if !ok {
			return
		}

		c.Set("room_id", claims.RoomID)
		c.Set("peer_id", claims.PeerID)
		c.Set("display_name", claims.DisplayName)
		c.Next()
	}
}

// RoomScopeMiddleware rejects guest tokens issued for a different room than
// the one addressed by the route. It must run after GuestAuthMiddleware.
func RoomScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomIDVal, exists := c.Get("room_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		tokenRoom, ok := roomIDVal.(domain.RoomID)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token context"})
			c.Abort()
			return
		}

		routeRoom := domain.RoomID(c.Param("roomId"))
		if routeRoom == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
			c.Abort()
			return
		}

		if tokenRoom != routeRoom {
			c.JSON(http.StatusForbidden, gin.H{"error": "token not valid for this room"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalGuestAuthMiddleware stores claims when a valid token is present but
// lets anonymous requests through.
func OptionalGuestAuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := authService.ValidateToken(parts[1]); err == nil {
				c.Set("room_id", claims.RoomID)
				c.Set("peer_id", claims.PeerID)
				c.Set("display_name", claims.DisplayName)
			}
		}

		c.Next()
	}
}

func bearerClaims(c *gin.Context, authService services.AuthService) (*services.GuestClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		c.Abort()
		return nil, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		c.Abort()
		return nil, false
	}
	return claims, true
}
