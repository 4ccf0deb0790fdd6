package core

import (
	"context"

	"github.com/dkeye/huddle/internal/domain"
)

// RoomStore is the room/channel collaborator. The hub only reads it;
// REST endpoints create rooms and channels through it.
type RoomStore interface {
	CreateRoom(ctx context.Context, room *domain.Room) error
	AddChannel(ctx context.Context, roomID domain.RoomID, ch *domain.Channel) error
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
}

// MessageStore owns per-channel ordering: concurrent Appends to one key
// must serialize inside the store.
type MessageStore interface {
	Append(ctx context.Context, key domain.MessageKey, msg *domain.ChatMessage) error
	List(ctx context.Context, key domain.MessageKey) ([]domain.ChatMessage, error)
}

// UserStore issues and resolves opaque bearer tokens.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User, token string) error
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	Name        string        `json:"name"`
	Channels    int           `json:"channels"`
	MemberCount int           `json:"client_count"`
}
