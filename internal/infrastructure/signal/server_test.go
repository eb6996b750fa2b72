package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/services"
	"stagecast/internal/infrastructure/media"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*httptest.Server, *services.Registry) {
	t.Helper()
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

	wsServer := NewWebSocketServer(registry, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		registry.Close()
	})
	return server, registry
}

func dial(t *testing.T, server *httptest.Server, roomID, peerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?roomId=" + roomID + "&peerId=" + peerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketServer_RejectsMissingIdentity(t *testing.T) {
	server, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?roomId=only-room"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketServer_RequestResponseRoundTrip(t *testing.T) {
	server, registry := newTestServer(t)
	conn := dial(t, server, "studio-1", "alice")

	require.NoError(t, conn.WriteJSON(Envelope{
		Request: true,
		ID:      1,
		Method:  "getRouterRtpCapabilities",
	}))

	var resp Envelope
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&resp))

	assert.True(t, resp.Response)
	assert.True(t, resp.OK)
	assert.Equal(t, uint64(1), resp.ID)
	assert.Contains(t, string(resp.Data), "audio/opus")

	_, ok := registry.Get("studio-1")
	assert.True(t, ok, "connecting must have created the room")
}

func TestWebSocketServer_UnknownMethodRejected(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, "studio-1", "alice")

	require.NoError(t, conn.WriteJSON(Envelope{
		Request: true,
		ID:      7,
		Method:  "flyToTheMoon",
	}))

	var resp Envelope
	conn.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, conn.ReadJSON(&resp))

	assert.True(t, resp.Response)
	assert.False(t, resp.OK)
	assert.Equal(t, uint64(7), resp.ID)
	assert.Equal(t, http.StatusNotImplemented, resp.ErrorCode)
}

func TestWebSocketServer_ReconnectKeepsRoomAlive(t *testing.T) {
	server, registry := newTestServer(t)

	old := dial(t, server, "studio-1", "alice")
	require.Eventually(t, func() bool {
		_, ok := registry.Get("studio-1")
		return ok
	}, time.Second, 10*time.Millisecond)

	replacement := dial(t, server, "studio-1", "alice")

	// The server closes the evicted socket; drain it until the close
	// surfaces so its handler loop has begun tearing down.
	old.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := old.ReadMessage(); err != nil {
			break
		}
	}

	require.Never(t, func() bool {
		_, ok := registry.Get("studio-1")
		return !ok
	}, 500*time.Millisecond, 25*time.Millisecond, "room must survive the evicted connection's teardown")

	require.NoError(t, replacement.WriteJSON(Envelope{
		Request: true,
		ID:      1,
		Method:  "getRouterRtpCapabilities",
	}))
	var resp Envelope
	replacement.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, replacement.ReadJSON(&resp))
	assert.True(t, resp.OK)
}

func TestWebSocketServer_DisconnectClosesEmptyRoom(t *testing.T) {
	server, registry := newTestServer(t)
	conn := dial(t, server, "studio-1", "alice")

	require.Eventually(t, func() bool {
		_, ok := registry.Get("studio-1")
		return ok
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		_, ok := registry.Get("studio-1")
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "room should close when its last peer disconnects")
}
