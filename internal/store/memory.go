package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
)

type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]*domain.Room
	order    []domain.RoomID
	messages map[domain.MessageKey][]domain.ChatMessage
	users    map[domain.UserID]domain.User
	tokens   map[string]domain.UserID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[domain.RoomID]*domain.Room),
		messages: make(map[domain.MessageKey][]domain.ChatMessage),
		users:    make(map[domain.UserID]domain.User),
		tokens:   make(map[string]domain.UserID),
	}
}

var (
	_ core.RoomStore    = (*MemoryStore)(nil)
	_ core.MessageStore = (*MemoryStore)(nil)
	_ core.UserStore    = (*MemoryStore)(nil)
)

func (s *MemoryStore) CreateRoom(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return fmt.Errorf("room %s already exists", room.ID)
	}
	cp := cloneRoom(*room)
	s.rooms[room.ID] = &cp
	s.order = append(s.order, room.ID)
	return nil
}

func (s *MemoryStore) AddChannel(_ context.Context, roomID domain.RoomID, ch *domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, core.ErrNotFound)
	}
	room.Channels = append(room.Channels, *ch)
	return nil
}

func (s *MemoryStore) GetRoom(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, core.ErrNotFound)
	}
	cp := cloneRoom(*room)
	return &cp, nil
}

func (s *MemoryStore) ListRooms(_ context.Context) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Room, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneRoom(*s.rooms[id]))
	}
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, key domain.MessageKey, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[key] = append(s.messages[key], *msg)
	return nil
}

func (s *MemoryStore) List(_ context.Context, key domain.MessageKey) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.messages[key])
	if out == nil {
		out = []domain.ChatMessage{}
	}
	return out, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *domain.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token]; ok {
		return fmt.Errorf("token already issued")
	}
	s.users[user.ID] = *user
	s.tokens[token] = user.ID
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, token string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uid, ok := s.tokens[token]
	if !ok || token == "" {
		return nil, core.ErrUnauthenticated
	}
	u := s.users[uid]
	return &u, nil
}

func cloneRoom(r domain.Room) domain.Room {
	r.Channels = slices.Clone(r.Channels)
	if r.Channels == nil {
		r.Channels = []domain.Channel{}
	}
	return r
}

func (s *MemoryStore) Close() error { return nil }
