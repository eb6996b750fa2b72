package signal

import (
	"context"
	"net/http"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/services"
	"stagecast/pkg/errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// RequestRecorder counts signaling requests by method and outcome.
type RequestRecorder interface {
	RecordSignalRequest(method string, ok bool)
}

// WebSocketServer accepts signaling connections addressed by roomId+peerId
// and bridges them into the room registry.
type WebSocketServer struct {
	registry *services.Registry
	recorder RequestRecorder

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

func NewWebSocketServer(registry *services.Registry, logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		registry:     registry,
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// SetRequestRecorder installs an optional request metrics sink.
func (s *WebSocketServer) SetRequestRecorder(recorder RequestRecorder) {
	s.recorder = recorder
}

// SetPingInterval sets ping interval for WebSocket connections
func (s *WebSocketServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// SetPongTimeout sets pong timeout for WebSocket connections. Reads share
// the same deadline: a silent connection is dead once it misses a pong.
func (s *WebSocketServer) SetPongTimeout(timeout time.Duration) {
	s.pongTimeout = timeout
	s.readTimeout = timeout
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(r.URL.Query().Get("roomId"))
	peerID := domain.PeerID(r.URL.Query().Get("peerId"))
	if roomID == "" || peerID == "" {
		http.Error(w, "roomId and peerId query parameters are required", http.StatusBadRequest)
		return
	}

	room, err := s.registry.GetOrCreate(r.Context(), roomID)
	if err != nil {
		s.logger.Errorw("room creation failed", "room_id", roomID, "error", err)
		http.Error(w, "room unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	pc := newPeerConn(conn, s.writeTimeout)

	peer, err := room.AddPeer(peerID, pc)
	if err != nil {
		s.logger.Warnw("peer registration failed", "room_id", roomID, "peer_id", peerID, "error", err)
		pc.Close()
		return
	}

	s.logger.Infow("peer connected", "room_id", roomID, "peer_id", peerID)

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan Envelope, 10)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			messageChan <- env
		}
	}()

loop:
	for {
		select {
		case env := <-messageChan:
			s.handleEnvelope(r.Context(), room, peer, pc, env)

		case <-pingTicker.C:
			pc.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			pc.writeMu.Unlock()
			if err != nil {
				s.logger.Infow("error sending ping", "peer_id", peerID, "error", err)
				break loop
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading from peer", "peer_id", peerID, "error", err)
			}
			break loop
		}
	}

	room.RemovePeer(peer)
	s.logger.Infow("peer disconnected", "room_id", roomID, "peer_id", peerID)
}

func (s *WebSocketServer) handleEnvelope(ctx context.Context, room *services.Room, peer *services.Peer, pc *peerConn, env Envelope) {
	switch {
	case env.Request:
		result, err := room.HandleRequest(ctx, peer, services.Method(env.Method), env.Data)
		if s.recorder != nil {
			s.recorder.RecordSignalRequest(env.Method, err == nil)
		}
		if err != nil {
			code := http.StatusInternalServerError
			reason := err.Error()
			if appErr := errors.GetAppError(err); appErr != nil {
				code = appErr.HTTPStatus
				reason = appErr.Message
			}
			if writeErr := pc.write(newReject(env.ID, code, reason)); writeErr != nil {
				s.logger.Warnw("failed to write reject", "peer_id", peer.ID(), "error", writeErr)
			}
			return
		}

		data, err := marshalAccept(result)
		if err != nil {
			s.logger.Errorw("failed to marshal accept payload", "method", env.Method, "error", err)
			pc.write(newReject(env.ID, http.StatusInternalServerError, "internal error"))
			return
		}
		if err := pc.write(newAccept(env.ID, data)); err != nil {
			s.logger.Warnw("failed to write accept", "peer_id", peer.ID(), "error", err)
		}

	case env.Response:
		pc.handleResponse(env)

	case env.Notification:
		// Client notifications are not part of the protocol; log and drop.
		s.logger.Debugw("ignoring client notification", "peer_id", peer.ID(), "method", env.Method)

	default:
		s.logger.Warnw("malformed envelope", "peer_id", peer.ID())
	}
}

// ConnectionCount reports live peers across all rooms.
func (s *WebSocketServer) ConnectionCount() int {
	total := 0
	for _, room := range s.registry.Rooms() {
		total += room.PeerCount()
	}
	return total
}
