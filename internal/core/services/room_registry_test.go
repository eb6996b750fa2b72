package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"stagecast/internal/infrastructure/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	engine := media.NewEngine(logger)

	pool, err := NewWorkerPool(context.Background(), engine, 2, nil, logger)
	require.NoError(t, err)

	registry := NewRegistry(pool, testRoomConfig(), logger)
	t.Cleanup(registry.Close)
	return registry
}

func TestRegistry_GetOrCreateIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t)

	first, err := registry.GetOrCreate(context.Background(), "studio-1")
	require.NoError(t, err)
	second, err := registry.GetOrCreate(context.Background(), "studio-1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, registry.Rooms(), 1)
}

func TestRegistry_ConcurrentCreateYieldsOneRoom(t *testing.T) {
	registry := newTestRegistry(t)

	const attempts = 16
	rooms := make([]*Room, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := registry.GetOrCreate(context.Background(), "studio-1")
			require.NoError(t, err)
			rooms[i] = room
		}(i)
	}
	wg.Wait()

	for i := 1; i < attempts; i++ {
		assert.Same(t, rooms[0], rooms[i])
	}
}

func TestRegistry_RoomUnregistersWhenLastPeerLeaves(t *testing.T) {
	registry := newTestRegistry(t)

	room, err := registry.GetOrCreate(context.Background(), "studio-1")
	require.NoError(t, err)

	signal := &stubSignal{}
	alice, err := room.AddPeer("alice", signal)
	require.NoError(t, err)

	room.RemovePeer(alice)

	require.Eventually(t, func() bool {
		_, ok := registry.Get("studio-1")
		return !ok
	}, time.Second, 10*time.Millisecond, "empty room should close and unregister")
	assert.True(t, room.Closed())
	assert.True(t, signal.Closed())
}

func TestRegistry_CloseTearsDownAllRooms(t *testing.T) {
	registry := newTestRegistry(t)

	a, err := registry.GetOrCreate(context.Background(), "studio-a")
	require.NoError(t, err)
	b, err := registry.GetOrCreate(context.Background(), "studio-b")
	require.NoError(t, err)

	registry.Close()

	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Empty(t, registry.Rooms())
}
