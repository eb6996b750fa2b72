package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/services"
	"stagecast/internal/infrastructure/media"
	"stagecast/internal/infrastructure/middleware"
	"stagecast/internal/infrastructure/repositories/memory"

	webrtc "github.com/pion/webrtc/v3"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type handlerFixture struct {
	router   *gin.Engine
	registry *services.Registry
	auth     services.AuthService
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t).Sugar()

	engine := media.NewEngine(logger)
	pool, err := services.NewWorkerPool(context.Background(), engine, 1, nil, logger)
	require.NoError(t, err)

	registry := services.NewRegistry(pool, services.RoomConfig{
		Codecs: []domain.RtpCodecCapability{
			{Kind: domain.MediaKindAudio, Codec: webrtc.RTPCodecCapability{MimeType: "audio/opus", ClockRate: 48000, Channels: 2}},
		},
		StudioWidth:           1920,
		StudioHeight:          1080,
		ReactionFlushInterval: time.Second,
		AudioLevelIntervalMs:  800,
		AudioLevelThreshold:   -80,
		RequestTimeout:        time.Second,
	}, logger)
	t.Cleanup(registry.Close)

	auth := services.NewAuthService("test-secret", time.Hour)
	handler := NewRoomHandler(memory.NewMemoryRoomStore(), registry, auth, nil)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	handler.SetupRoutes(router)

	return &handlerFixture{router: router, registry: registry, auth: auth}
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) createRoom(t *testing.T, roomID, passcode string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{
		"roomId":   roomID,
		"passcode": passcode,
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func (f *handlerFixture) guestToken(t *testing.T, roomID, passcode string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/rooms/"+roomID+"/token", "", gin.H{
		"passcode":    passcode,
		"displayName": "Host",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRoomHandler_CreateAndGetRoom(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "hunter2")

	w := f.do(t, http.MethodGet, "/api/v1/rooms/room-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Room struct {
			RoomID      string `json:"roomId"`
			HasPasscode bool   `json:"hasPasscode"`
			Live        bool   `json:"live"`
		} `json:"room"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "room-1", resp.Room.RoomID)
	assert.True(t, resp.Room.HasPasscode)
	assert.False(t, resp.Room.Live)
}

func TestRoomHandler_DuplicateRoomConflicts(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")

	w := f.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"roomId": "room-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRoomHandler_GuestTokenRequiresPasscode(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "hunter2")

	w := f.do(t, http.MethodPost, "/api/v1/rooms/room-1/token", "", gin.H{
		"passcode": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := f.guestToken(t, "room-1", "hunter2")
	assert.NotEmpty(t, token)
}

func TestRoomHandler_PasscodelessRoomIssuesTokenDirectly(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")

	token := f.guestToken(t, "room-1", "")
	claims, err := f.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("room-1"), claims.RoomID)
	assert.NotEmpty(t, claims.PeerID)
}

func TestRoomHandler_CaptionRoundTrip(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")
	token := f.guestToken(t, "room-1", "")

	w := f.do(t, http.MethodPut, "/api/v1/rooms/room-1/caption", token, gin.H{
		"caption": "Season finale",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/rooms/room-1/caption", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Season finale")
}

func TestRoomHandler_MutationsRequireToken(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")

	w := f.do(t, http.MethodPut, "/api/v1/rooms/room-1/caption", "", gin.H{
		"caption": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A token for another room must not work either.
	f.createRoom(t, "room-2", "")
	otherToken := f.guestToken(t, "room-2", "")
	w = f.do(t, http.MethodPut, "/api/v1/rooms/room-1/caption", otherToken, gin.H{
		"caption": "nope",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoomHandler_CoverLifecycle(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")
	token := f.guestToken(t, "room-1", "")

	w := f.do(t, http.MethodPost, "/api/v1/rooms/room-1/covers", token, gin.H{
		"url": "https://cdn.example.com/cover-a.png",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/rooms/room-1/covers", token, gin.H{
		"url": "https://cdn.example.com/cover-b.png",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/rooms/room-1/covers", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cover-a.png")
	assert.Contains(t, w.Body.String(), "cover-b.png")

	w = f.do(t, http.MethodDelete, "/api/v1/rooms/room-1/covers?url=https%3A%2F%2Fcdn.example.com%2Fcover-a.png", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/rooms/room-1/covers", token, nil)
	assert.NotContains(t, w.Body.String(), "cover-a.png")
	assert.Contains(t, w.Body.String(), "cover-b.png")
}

func TestRoomHandler_ReactionsRequireLiveRoom(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")
	token := f.guestToken(t, "room-1", "")

	w := f.do(t, http.MethodPost, "/api/v1/rooms/room-1/reactions", token, gin.H{
		"count": 3,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomHandler_CapabilitiesForLiveRoom(t *testing.T) {
	f := newHandlerFixture(t)
	f.createRoom(t, "room-1", "")

	w := f.do(t, http.MethodGet, "/api/v1/rooms/room-1/capabilities", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := f.registry.GetOrCreate(context.Background(), "room-1")
	require.NoError(t, err)

	w = f.do(t, http.MethodGet, "/api/v1/rooms/room-1/capabilities", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "audio/opus")
}
