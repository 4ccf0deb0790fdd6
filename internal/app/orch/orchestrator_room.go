package orch

import (
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Connect(user *domain.User, sig core.SignalConnection) (core.ConnectionID, error) {
	return o.Registry.Register(user, sig)
}

// Join replaces the connection's membership. An empty room clears it.
func (o *Orchestrator) Join(id core.ConnectionID, room domain.RoomID, channel domain.ChannelID) (domain.Membership, error) {
	m, ok := o.Registry.SetMembership(id, room, channel)
	if !ok {
		return domain.Membership{}, core.ErrConnectionClosed
	}
	log.Info().Str("module", "orch").Str("conn_id", string(id)).Str("room", string(m.RoomID)).Str("channel", string(m.ChannelID)).Msg("join")
	return m, nil
}

func (o *Orchestrator) Whoami(id core.ConnectionID) (core.Connection, bool) {
	return o.Registry.Get(id)
}

// Disconnect is safe to call from both the socket-close path and a failed
// send: only the call that actually removes the entry closes the transport.
func (o *Orchestrator) Disconnect(id core.ConnectionID) {
	c, ok := o.Registry.Remove(id)
	if !ok {
		return
	}
	c.Signal.Close()
	log.Info().Str("module", "orch").Str("conn_id", string(id)).Str("user", string(c.User.ID)).Msg("disconnected")
}
