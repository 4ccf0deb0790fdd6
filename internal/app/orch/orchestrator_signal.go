package orch

import (
	"context"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
)

func (o *Orchestrator) Signal(id core.ConnectionID, env domain.SignalEnvelope) error {
	c, ok := o.Registry.Get(id)
	if !ok {
		return core.ErrConnectionClosed
	}
	_, err := o.Relay.Handle(c, env)
	return err
}

// PostChat posts into the connection's current room and channel.
func (o *Orchestrator) PostChat(ctx context.Context, id core.ConnectionID, text, emoji string, attachments []string) (*domain.ChatMessage, error) {
	c, ok := o.Registry.Get(id)
	if !ok {
		return nil, core.ErrConnectionClosed
	}
	if !c.Joined() || c.Membership.ChannelID == "" {
		return nil, core.ErrNotJoined
	}
	key := domain.MessageKey{RoomID: c.Membership.RoomID, ChannelID: c.Membership.ChannelID}
	return o.Chat.PostMessage(ctx, key, c.User, text, emoji, attachments)
}
