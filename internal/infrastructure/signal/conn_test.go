package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPeerConn dials a throwaway websocket server that drains and ignores
// everything the connection writes.
func newTestPeerConn(t *testing.T) *peerConn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return newPeerConn(conn, time.Second)
}

func TestPeerConn_CloseUnblocksInflightRequest(t *testing.T) {
	pc := newTestPeerConn(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := pc.Request(context.Background(), "newConsumer", map[string]interface{}{})
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	pc.Close()

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("in-flight request not unblocked by Close")
	}
}

func TestPeerConn_ResponseAfterCloseIsHarmless(t *testing.T) {
	pc := newTestPeerConn(t)

	ch := make(chan Envelope, 1)
	pc.mu.Lock()
	pc.pending[1] = ch
	pc.mu.Unlock()

	// A response routed by the reader loop can arrive after eviction has
	// closed the connection; it must be swallowed, not panic the routine.
	pc.Close()
	pc.handleResponse(Envelope{Response: true, ID: 1, OK: true})

	select {
	case env := <-ch:
		assert.True(t, env.OK)
	default:
		t.Fatal("response not delivered to the pending waiter")
	}
}

func TestPeerConn_RequestAfterCloseFails(t *testing.T) {
	pc := newTestPeerConn(t)
	pc.Close()

	_, err := pc.Request(context.Background(), "newConsumer", nil)
	require.Error(t, err)
}
