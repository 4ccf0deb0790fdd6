package app

import (
	"sync"
	"testing"

	"github.com/dkeye/huddle/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keepPolicy struct{}

func (keepPolicy) OnDeliveryFailure(core.Connection, error) DeliveryAction { return DropEvent }

func TestToChannelDeliversOnlyToExactChannel(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, nil)

	_, inside := join(reg, "u1", "r1", "v1")
	_, otherChannel := join(reg, "u2", "r1", "v2")
	_, noChannel := join(reg, "u3", "r1", "")
	_, otherRoom := join(reg, "u4", "r2", "v1")

	res := bus.ToChannel("r1", "v1", core.NewErrorEvent("x"))
	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, 1, inside.count())
	assert.Zero(t, otherChannel.count())
	assert.Zero(t, noChannel.count())
	assert.Zero(t, otherRoom.count())
}

func TestToRoomIgnoresChannel(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, nil)

	_, a := join(reg, "u1", "r1", "v1")
	_, b := join(reg, "u2", "r1", "")
	_, c := join(reg, "u3", "r2", "v1")

	res := bus.ToRoom("r1", core.NewErrorEvent("x"))
	assert.Equal(t, 2, res.SendTo)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Zero(t, c.count())
}

func TestToChannelSkipsListedConnections(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, nil)
	sender, own := join(reg, "u1", "r1", "v1")
	_, peer := join(reg, "u2", "r1", "v1")

	res := bus.ToChannel("r1", "v1", core.NewErrorEvent("x"), sender)
	assert.Equal(t, 1, res.SendTo)
	assert.Zero(t, own.count())
	assert.Equal(t, 1, peer.count())
}

func TestFailedRecipientIsKickedOthersStillServed(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, SimplePolicy{})

	slowID, slow := join(reg, "slow", "r1", "v1")
	slow.err = core.ErrBackpressure
	_, a := join(reg, "u1", "r1", "v1")
	_, b := join(reg, "u2", "r1", "v1")

	res := bus.ToChannel("r1", "v1", core.NewErrorEvent("x"))
	assert.Equal(t, 2, res.SendTo)
	assert.Equal(t, []core.ConnectionID{slowID}, res.Dropped)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())

	_, ok := reg.Get(slowID)
	assert.False(t, ok)
	assert.Equal(t, 1, slow.closes())
}

func TestPolicyCanKeepRecipient(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, keepPolicy{})
	id, sig := join(reg, "u1", "r1", "v1")
	sig.err = core.ErrBackpressure

	res := bus.ToRoom("r1", core.NewErrorEvent("x"))
	assert.Empty(t, res.Dropped)
	_, ok := reg.Get(id)
	assert.True(t, ok)
}

func TestClosedTransportIsAlwaysKicked(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, keepPolicy{})
	id, sig := join(reg, "u1", "r1", "v1")
	sig.Close()

	res := bus.ToRoom("r1", core.NewErrorEvent("x"))
	assert.Equal(t, []core.ConnectionID{id}, res.Dropped)
	_, ok := reg.Get(id)
	assert.False(t, ok)
}

func TestRemovalMidBroadcast(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, nil)

	_, first := join(reg, "u1", "r1", "v1")
	victimID, victim := join(reg, "u2", "r1", "v1")
	_, third := join(reg, "u3", "r1", "v1")

	// The socket-close path wins the race while the broadcast is in flight.
	first.onSend = func() {
		if c, ok := reg.Remove(victimID); ok {
			c.Signal.Close()
		}
	}
	third.onSend = first.onSend

	require.NotPanics(t, func() {
		bus.ToChannel("r1", "v1", core.NewErrorEvent("x"))
	})

	for c := range reg.Matching(nil) {
		assert.NotEqual(t, victimID, c.ID)
	}
	assert.Equal(t, 1, victim.closes(), "removal must close the transport exactly once")
	assert.Equal(t, 1, third.count())
}

func TestConcurrentBroadcastAndRemove(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, nil)

	var ids []core.ConnectionID
	for i := range 50 {
		id, _ := join(reg, string(rune('a'+i%26))+"x", "r1", "v1")
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				bus.ToChannel("r1", "v1", core.NewErrorEvent("x"))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			if c, ok := reg.Remove(id); ok {
				c.Signal.Close()
			}
		}
	}()
	wg.Wait()

	assert.Zero(t, reg.Count())
}

func TestSendReply(t *testing.T) {
	reg := NewRegistry()
	bus := NewBroadcaster(reg, nil)
	id, sig := join(reg, "u1", "r1", "v1")

	require.NoError(t, bus.Send(id, core.NewPongEvent()))
	var ev core.PongEvent
	require.NoError(t, sig.last(&ev))
	assert.Equal(t, "pong", ev.Type)

	assert.ErrorIs(t, bus.Send("missing", core.NewPongEvent()), core.ErrConnectionClosed)

	sig.err = core.ErrBackpressure
	err := bus.Send(id, core.NewPongEvent())
	assert.ErrorIs(t, err, core.ErrDeliveryFailure)
	assert.ErrorIs(t, err, core.ErrBackpressure)
}
