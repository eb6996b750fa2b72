package ports

import (
	"context"

	"stagecast/internal/core/domain"
)

// RoomRecord is the persisted metadata of a room, consumed by the REST layer.
type RoomRecord struct {
	RoomID        domain.RoomID `json:"roomId"`
	PasscodeHash  string        `json:"passcodeHash,omitempty"`
	CoverURLs     []string      `json:"coverUrls"`
	BackgroundURL string        `json:"backgroundUrl,omitempty"`
	Caption       string        `json:"caption,omitempty"`
}

// RoomStore persists room metadata keyed by room id.
type RoomStore interface {
	Create(ctx context.Context, record *RoomRecord) error
	Get(ctx context.Context, roomID domain.RoomID) (*RoomRecord, error)
	Update(ctx context.Context, record *RoomRecord) error
	Delete(ctx context.Context, roomID domain.RoomID) error
}
