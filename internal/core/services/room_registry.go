package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stagecast/internal/core/domain"

	"go.uber.org/zap"
)

// RoomConfig carries the per-room knobs shared by every room the registry
// creates.
type RoomConfig struct {
	Codecs []domain.RtpCodecCapability

	StudioWidth  int
	StudioHeight int

	ReactionFlushInterval time.Duration

	AudioLevelIntervalMs int
	AudioLevelThreshold  int

	// ThrottleSecret gates the network-throttle request pair. Empty means
	// the pair is always rejected.
	ThrottleSecret string

	// RequestTimeout bounds server-initiated requests to clients
	// (newConsumer / newDataConsumer acknowledgments).
	RequestTimeout time.Duration
}

// Registry creates, looks up and destroys rooms. Creation is serialized
// through a single lock so near-simultaneous joins never double-create a
// room; this also serializes creation across unrelated rooms, a known
// throughput limit of the current design.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room

	// createMu is the global room-creation serialization point.
	createMu sync.Mutex

	pool   *WorkerPool
	cfg    RoomConfig
	logger *zap.SugaredLogger
}

// NewRegistry creates a registry backed by the given worker pool.
func NewRegistry(pool *WorkerPool, cfg RoomConfig, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		rooms:  make(map[domain.RoomID]*Room),
		pool:   pool,
		cfg:    cfg,
		logger: logger,
	}
}

// Get returns the live room with the given id, if any.
func (r *Registry) Get(roomID domain.RoomID) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// GetOrCreate returns the room for roomID, creating it (and performing its
// one-time worker-side setup) when it does not exist yet.
func (r *Registry) GetOrCreate(ctx context.Context, roomID domain.RoomID) (*Room, error) {
	if room, ok := r.Get(roomID); ok {
		return room, nil
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	// Re-check under the creation lock.
	if room, ok := r.Get(roomID); ok {
		return room, nil
	}

	worker := r.pool.Next()
	room, err := newRoom(ctx, roomID, worker, r.cfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create room %s: %w", roomID, err)
	}

	room.onClose = func(closed *Room) {
		r.mu.Lock()
		delete(r.rooms, closed.ID())
		r.mu.Unlock()
		r.logger.Infow("room unregistered", "room_id", closed.ID())
	}

	r.mu.Lock()
	r.rooms[roomID] = room
	r.mu.Unlock()

	r.logger.Infow("room created", "room_id", roomID, "worker_id", worker.ID())
	return room, nil
}

// Rooms returns a snapshot of all live rooms.
func (r *Registry) Rooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

// Close tears down every live room.
func (r *Registry) Close() {
	for _, room := range r.Rooms() {
		room.Close()
	}
}
