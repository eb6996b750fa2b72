package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guestRouter(auth services.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/rooms/:roomId", GuestAuthMiddleware(auth), RoomScopeMiddleware())
	group.GET("/whoami", func(c *gin.Context) {
		peerID, _ := c.Get("peer_id")
		c.JSON(http.StatusOK, gin.H{"peerId": peerID})
	})
	return router
}

func TestGuestAuthMiddleware_ValidTokenPasses(t *testing.T) {
	auth := services.NewAuthService("test-secret", time.Hour)
	router := guestRouter(auth)

	token, err := auth.IssueGuestToken(domain.RoomID("room-1"), domain.PeerID("guest-7"), "Dana")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rooms/room-1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "guest-7")
}

func TestGuestAuthMiddleware_MissingHeaderRejected(t *testing.T) {
	auth := services.NewAuthService("test-secret", time.Hour)
	router := guestRouter(auth)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rooms/room-1/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoomScopeMiddleware_WrongRoomForbidden(t *testing.T) {
	auth := services.NewAuthService("test-secret", time.Hour)
	router := guestRouter(auth)

	token, err := auth.IssueGuestToken(domain.RoomID("room-1"), domain.PeerID("guest-7"), "Dana")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rooms/room-2/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGuestAuthMiddleware_ExpiredTokenRejected(t *testing.T) {
	auth := services.NewAuthService("test-secret", -time.Minute)
	router := guestRouter(auth)

	token, err := auth.IssueGuestToken(domain.RoomID("room-1"), domain.PeerID("guest-7"), "Dana")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rooms/room-1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
