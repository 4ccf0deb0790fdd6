package app

import (
	"context"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
)

// RoomManager fronts the room store for the REST surface and adds live
// member counts from the registry.
type RoomManager struct {
	store    core.RoomStore
	registry *Registry
}

func NewRoomManager(store core.RoomStore, reg *Registry) *RoomManager {
	return &RoomManager{store: store, registry: reg}
}

func (m *RoomManager) CreateRoom(ctx context.Context, name string) (*domain.Room, error) {
	room, err := domain.NewRoom(name)
	if err != nil {
		return nil, err
	}
	if err := m.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (m *RoomManager) CreateChannel(ctx context.Context, roomID domain.RoomID, name string, kind domain.ChannelKind) (*domain.Channel, error) {
	ch, err := domain.NewChannel(name, kind)
	if err != nil {
		return nil, err
	}
	if err := m.store.AddChannel(ctx, roomID, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (m *RoomManager) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	return m.store.GetRoom(ctx, id)
}

func (m *RoomManager) List(ctx context.Context) ([]domain.Room, error) {
	return m.store.ListRooms(ctx)
}

func (m *RoomManager) Info(ctx context.Context) ([]core.RoomInfo, error) {
	rooms, err := m.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, core.RoomInfo{
			ID:          r.ID,
			Name:        r.Name,
			Channels:    len(r.Channels),
			MemberCount: m.registry.MembersOfRoom(r.ID),
		})
	}
	return out, nil
}
