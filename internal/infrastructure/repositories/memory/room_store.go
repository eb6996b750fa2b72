package memory

import (
	"context"
	"sync"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"
)

type MemoryRoomStore struct {
	records map[domain.RoomID]*ports.RoomRecord
	mu      sync.RWMutex
}

func NewMemoryRoomStore() ports.RoomStore {
	return &MemoryRoomStore{
		records: make(map[domain.RoomID]*ports.RoomRecord),
	}
}

func (s *MemoryRoomStore) Create(ctx context.Context, record *ports.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.RoomID]; exists {
		return domain.ErrRoomExists
	}
	clone := *record
	s.records[record.RoomID] = &clone
	return nil
}

func (s *MemoryRoomStore) Get(ctx context.Context, roomID domain.RoomID) (*ports.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *MemoryRoomStore) Update(ctx context.Context, record *ports.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.RoomID]; !ok {
		return domain.ErrRoomNotFound
	}
	clone := *record
	s.records[record.RoomID] = &clone
	return nil
}

func (s *MemoryRoomStore) Delete(ctx context.Context, roomID domain.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[roomID]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(s.records, roomID)
	return nil
}
