package memory

import (
	"context"
	"testing"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoomStore_CRUD(t *testing.T) {
	store := NewMemoryRoomStore()
	ctx := context.Background()

	record := &ports.RoomRecord{
		RoomID:    "studio-1",
		CoverURLs: []string{"https://cdn.example.com/cover.png"},
		Caption:   "on air",
	}
	require.NoError(t, store.Create(ctx, record))

	assert.Equal(t, domain.ErrRoomExists, store.Create(ctx, record))

	got, err := store.Get(ctx, "studio-1")
	require.NoError(t, err)
	assert.Equal(t, "on air", got.Caption)

	got.Caption = "break"
	require.NoError(t, store.Update(ctx, got))
	again, err := store.Get(ctx, "studio-1")
	require.NoError(t, err)
	assert.Equal(t, "break", again.Caption)

	require.NoError(t, store.Delete(ctx, "studio-1"))
	_, err = store.Get(ctx, "studio-1")
	assert.Equal(t, domain.ErrRoomNotFound, err)
}

func TestMemoryRoomStore_MissingRoom(t *testing.T) {
	store := NewMemoryRoomStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "ghost")
	assert.Equal(t, domain.ErrRoomNotFound, err)
	assert.Equal(t, domain.ErrRoomNotFound, store.Update(ctx, &ports.RoomRecord{RoomID: "ghost"}))
	assert.Equal(t, domain.ErrRoomNotFound, store.Delete(ctx, "ghost"))
}

func TestMemoryRoomStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryRoomStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &ports.RoomRecord{RoomID: "studio-1"}))

	got, err := store.Get(ctx, "studio-1")
	require.NoError(t, err)
	got.Caption = "mutated in place"

	fresh, err := store.Get(ctx, "studio-1")
	require.NoError(t, err)
	assert.Empty(t, fresh.Caption, "Get must hand back a copy, not shared state")
}
