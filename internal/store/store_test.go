package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend interface {
	core.RoomStore
	core.MessageStore
	core.UserStore
}

func backends(t *testing.T) map[string]backend {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "huddle.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]backend{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestRoomsAndChannels(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, _ := domain.NewRoom("alpha")
			b, _ := domain.NewRoom("beta")
			require.NoError(t, s.CreateRoom(ctx, a))
			require.NoError(t, s.CreateRoom(ctx, b))

			general, _ := domain.NewChannel("general", domain.ChannelText)
			lounge, _ := domain.NewChannel("lounge", domain.ChannelVoice)
			require.NoError(t, s.AddChannel(ctx, a.ID, general))
			require.NoError(t, s.AddChannel(ctx, a.ID, lounge))

			got, err := s.GetRoom(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, "alpha", got.Name)
			require.Len(t, got.Channels, 2)
			assert.Equal(t, general.ID, got.Channels[0].ID)
			assert.Equal(t, domain.ChannelVoice, got.Channels[1].Kind)

			rooms, err := s.ListRooms(ctx)
			require.NoError(t, err)
			require.Len(t, rooms, 2)
			assert.Equal(t, a.ID, rooms[0].ID)
			assert.Equal(t, b.ID, rooms[1].ID)
			assert.Empty(t, rooms[1].Channels)
		})
	}
}

func TestMissingRoom(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetRoom(ctx, "nope")
			assert.ErrorIs(t, err, core.ErrNotFound)

			ch, _ := domain.NewChannel("general", domain.ChannelText)
			assert.ErrorIs(t, s.AddChannel(ctx, "nope", ch), core.ErrNotFound)
		})
	}
}

func TestMessagesKeepAppendOrder(t *testing.T) {
	ctx := context.Background()
	alice := domain.User{ID: "u1", Username: "alice"}
	key := domain.MessageKey{RoomID: "r1", ChannelID: "c1"}
	other := domain.MessageKey{RoomID: "r1", ChannelID: "c2"}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.List(ctx, key)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			first, _ := domain.NewChatMessage(alice, "hi", "", nil, now)
			second, _ := domain.NewChatMessage(alice, "", "👍", []string{"a.png"}, now.Add(time.Second))
			elsewhere, _ := domain.NewChatMessage(alice, "other", "", nil, now)
			require.NoError(t, s.Append(ctx, key, first))
			require.NoError(t, s.Append(ctx, key, second))
			require.NoError(t, s.Append(ctx, other, elsewhere))

			got, err := s.List(ctx, key)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, first.ID, got[0].ID)
			assert.Equal(t, second.ID, got[1].ID)
			assert.Equal(t, alice, got[1].User)
			assert.Equal(t, []string{"a.png"}, got[1].Attachments)
			assert.True(t, second.CreatedAt.Equal(got[1].CreatedAt))
		})
	}
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	key := domain.MessageKey{RoomID: "r1", ChannelID: "c1"}
	u := domain.User{ID: "u1", Username: "alice"}

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					msg, _ := domain.NewChatMessage(u, "x", "", nil, time.Now())
					assert.NoError(t, s.Append(ctx, key, msg))
				}()
			}
			wg.Wait()

			got, err := s.List(ctx, key)
			require.NoError(t, err)
			assert.Len(t, got, 20)
		})
	}
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			u, err := domain.NewUser("alice")
			require.NoError(t, err)
			require.NoError(t, s.CreateUser(ctx, u, "tok-1"))

			got, err := s.Resolve(ctx, "tok-1")
			require.NoError(t, err)
			assert.Equal(t, *u, *got)

			_, err = s.Resolve(ctx, "tok-2")
			assert.ErrorIs(t, err, core.ErrUnauthenticated)
			_, err = s.Resolve(ctx, "")
			assert.ErrorIs(t, err, core.ErrUnauthenticated)

			assert.Error(t, s.CreateUser(ctx, u, "tok-1"))
		})
	}
}
