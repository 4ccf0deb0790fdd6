package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// ChatDispatcher validates chat posts, persists them through the message
// store and announces them to the whole room.
type ChatDispatcher struct {
	Messages  core.MessageStore
	Publisher core.Publisher
	Limiter   *RateLimiter
	Now       func() time.Time
}

func NewChatDispatcher(store core.MessageStore, pub core.Publisher, limiter *RateLimiter) *ChatDispatcher {
	return &ChatDispatcher{Messages: store, Publisher: pub, Limiter: limiter, Now: time.Now}
}

func (d *ChatDispatcher) PostMessage(
	ctx context.Context,
	key domain.MessageKey,
	author domain.User,
	text, emoji string,
	attachments []string,
) (*domain.ChatMessage, error) {
	msg, err := domain.NewChatMessage(author, text, emoji, attachments, d.Now())
	if err != nil {
		return nil, err
	}
	if !d.Limiter.Allow(author.ID) {
		return nil, core.ErrRateLimited
	}
	if err := d.Messages.Append(ctx, key, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	res := d.Publisher.ToRoom(key.RoomID, core.NewChatEvent(key, msg))
	log.Info().
		Str("module", "app.chat").
		Str("key", key.String()).
		Str("user", string(author.ID)).
		Str("message_id", string(msg.ID)).
		Int("sent_to", res.SendTo).
		Msg("message posted")
	return msg, nil
}

func (d *ChatDispatcher) History(ctx context.Context, key domain.MessageKey) ([]domain.ChatMessage, error) {
	return d.Messages.List(ctx, key)
}
