package app

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/huddle/internal/app/mocks"
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/dkeye/huddle/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var general = domain.MessageKey{RoomID: "r1", ChannelID: "general"}

func TestEmptyMessageIsNotBroadcast(t *testing.T) {
	ctrl := gomock.NewController(t)
	// no expectations: any publish fails the test
	pub := mocks.NewMockPublisher(ctrl)
	st := store.NewMemoryStore()
	d := NewChatDispatcher(st, pub, nil)

	_, err := d.PostMessage(context.Background(), general, *user("u1"), "", "", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	msgs, err := st.List(context.Background(), general)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPostMessageBroadcastsToRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	st := store.NewMemoryStore()
	d := NewChatDispatcher(st, pub, nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d.Now = func() time.Time { return now }

	var got core.ChatEvent
	pub.EXPECT().
		ToRoom(domain.RoomID("r1"), gomock.AssignableToTypeOf(core.ChatEvent{})).
		DoAndReturn(func(_ domain.RoomID, ev any) core.PublishResult {
			got = ev.(core.ChatEvent)
			return core.PublishResult{SendTo: 2}
		})

	msg, err := d.PostMessage(context.Background(), general, *user("u1"), "", "🎉", nil)
	require.NoError(t, err)

	assert.Equal(t, "chat", got.Type)
	assert.Equal(t, general.ChannelID, got.ChannelID)
	assert.Equal(t, msg, got.Message)
	assert.Equal(t, now, msg.CreatedAt)
	assert.Equal(t, []string{}, msg.Attachments)

	history, err := d.History(context.Background(), general)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestPostMessageIsRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().ToRoom(gomock.Any(), gomock.Any()).Times(2)

	d := NewChatDispatcher(store.NewMemoryStore(), pub, NewRateLimiter(2, time.Minute))
	ctx := context.Background()

	for range 2 {
		_, err := d.PostMessage(ctx, general, *user("u1"), "hi", "", nil)
		require.NoError(t, err)
	}
	_, err := d.PostMessage(ctx, general, *user("u1"), "hi", "", nil)
	assert.ErrorIs(t, err, core.ErrRateLimited)
}

func TestChatReachesEveryChannelOfTheRoom(t *testing.T) {
	reg := NewRegistry()
	d := NewChatDispatcher(store.NewMemoryStore(), NewBroadcaster(reg, nil), nil)

	_, author := join(reg, "u1", "r1", "general")
	_, voice := join(reg, "u2", "r1", "voice")
	_, lobby := join(reg, "u3", "r1", "")
	_, other := join(reg, "u4", "r2", "general")

	_, err := d.PostMessage(context.Background(), general, *user("u1"), "hello", "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, author.count(), "the author sees its own message")
	assert.Equal(t, 1, voice.count())
	assert.Equal(t, 1, lobby.count())
	assert.Zero(t, other.count())
}
