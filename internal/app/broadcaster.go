package app

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Broadcaster encodes an event once and hands the frame to every matching
// connection's outbound queue. Delivery is fire-and-forget per recipient.
type Broadcaster struct {
	Registry *Registry
	Policy   Policy
}

func NewBroadcaster(reg *Registry, policy Policy) *Broadcaster {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Broadcaster{Registry: reg, Policy: policy}
}

var _ core.Publisher = (*Broadcaster)(nil)

// ToRoom sends event to every connection in room, regardless of channel.
func (b *Broadcaster) ToRoom(room domain.RoomID, event any) core.PublishResult {
	return b.publish(InRoom(room), event, nil)
}

// ToChannel sends event to connections in exactly (room, channel), except
// the ones listed in skip.
func (b *Broadcaster) ToChannel(room domain.RoomID, channel domain.ChannelID, event any, skip ...core.ConnectionID) core.PublishResult {
	return b.publish(InChannel(room, channel), event, skip)
}

func (b *Broadcaster) publish(match func(core.Connection) bool, event any, skip []core.ConnectionID) core.PublishResult {
	res := core.PublishResult{}
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcaster").Msg("encode event")
		return res
	}
	for c := range b.Registry.Matching(match) {
		if slices.Contains(skip, c.ID) {
			continue
		}
		if err := c.Signal.TrySend(frame); err != nil {
			if b.onFailure(c, err) {
				res.Dropped = append(res.Dropped, c.ID)
			}
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.broadcaster").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// onFailure applies the policy to a failed recipient and reports whether it
// was dropped. A closed transport is always removed.
func (b *Broadcaster) onFailure(c core.Connection, err error) bool {
	action := KickMember
	if !errors.Is(err, core.ErrConnectionClosed) {
		action = b.Policy.OnDeliveryFailure(c, err)
	}
	switch action {
	case KickMember:
		log.Warn().Err(err).Str("module", "app.broadcaster").Str("conn_id", string(c.ID)).Msg("dropping recipient")
		if removed, ok := b.Registry.Remove(c.ID); ok {
			removed.Signal.Close()
		}
		return true
	case DropEvent, NoAction:
	}
	return false
}

// Send delivers one event to one connection, with the same failure handling
// as a broadcast. Used for replies to the sender.
func (b *Broadcaster) Send(id core.ConnectionID, event any) error {
	c, ok := b.Registry.Get(id)
	if !ok {
		return core.ErrConnectionClosed
	}
	frame, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := c.Signal.TrySend(frame); err != nil {
		b.onFailure(c, err)
		return errors.Join(core.ErrDeliveryFailure, err)
	}
	return nil
}
