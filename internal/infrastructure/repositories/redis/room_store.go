package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisRoomStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRoomStore(client *redis.Client) ports.RoomStore {
	return &RedisRoomStore{
		client: client,
		prefix: "stagecast:room:",
	}
}

func (s *RedisRoomStore) roomKey(id domain.RoomID) string {
	return s.prefix + string(id)
}

func (s *RedisRoomStore) Create(ctx context.Context, record *ports.RoomRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal room record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.roomKey(record.RoomID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set room in Redis: %w", err)
	}
	if !ok {
		return domain.ErrRoomExists
	}
	return nil
}

func (s *RedisRoomStore) Get(ctx context.Context, roomID domain.RoomID) (*ports.RoomRecord, error) {
	data, err := s.client.Get(ctx, s.roomKey(roomID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room from Redis: %w", err)
	}

	var record ports.RoomRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room record: %w", err)
	}
	return &record, nil
}

func (s *RedisRoomStore) Update(ctx context.Context, record *ports.RoomRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal room record: %w", err)
	}

	ok, err := s.client.SetXX(ctx, s.roomKey(record.RoomID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update room in Redis: %w", err)
	}
	if !ok {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (s *RedisRoomStore) Delete(ctx context.Context, roomID domain.RoomID) error {
	deleted, err := s.client.Del(ctx, s.roomKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room from Redis: %w", err)
	}
	if deleted == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
