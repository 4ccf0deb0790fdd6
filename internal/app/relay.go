package app

import (
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Relay forwards signaling envelopes to everyone in the sender's room and
// the envelope's channel. It is a dumb pipe: target ids are advisory and
// are filtered by the receiving peer, and payloads are never inspected.
type Relay struct {
	Publisher core.Publisher
}

func NewRelay(p core.Publisher) *Relay {
	return &Relay{Publisher: p}
}

// Handle stamps the sender from conn and fans the envelope out. The
// sending connection itself is skipped.
func (r *Relay) Handle(conn core.Connection, env domain.SignalEnvelope) (core.PublishResult, error) {
	if !conn.Joined() {
		return core.PublishResult{}, core.ErrNotJoined
	}
	env.From = conn.User

	res := r.Publisher.ToChannel(conn.Membership.RoomID, env.ChannelID, core.NewSignalEvent(env), conn.ID)
	log.Debug().
		Str("module", "app.relay").
		Str("conn_id", string(conn.ID)).
		Str("kind", string(env.Kind)).
		Str("room", string(conn.Membership.RoomID)).
		Str("channel", string(env.ChannelID)).
		Str("target", string(env.TargetID)).
		Int("sent_to", res.SendTo).
		Msg("relayed signal")
	return res, nil
}
