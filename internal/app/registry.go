package app

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	user       domain.User
	membership domain.Membership
	signal     core.SignalConnection
}

func (e *connEntry) snapshot(id core.ConnectionID) core.Connection {
	return core.Connection{ID: id, User: e.user, Membership: e.membership, Signal: e.signal}
}

// Registry tracks live connections and their room/channel membership.
// It never touches sockets.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnectionID]*connEntry)}
}

// Register adds a live connection with no membership. The caller must have
// resolved the identity already; a nil user is refused.
func (r *Registry) Register(user *domain.User, sig core.SignalConnection) (core.ConnectionID, error) {
	if user == nil || user.ID == "" {
		return "", core.ErrUnauthenticated
	}
	id := core.ConnectionID(uuid.NewString())
	r.mu.Lock()
	r.conns[id] = &connEntry{user: *user, signal: sig}
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("conn_id", string(id)).Str("user", string(user.ID)).Msg("registered connection")
	return id, nil
}

// SetMembership overwrites the (room, channel) pair in one step. Ids are
// opaque correlation keys and are not validated.
func (r *Registry) SetMembership(id core.ConnectionID, room domain.RoomID, channel domain.ChannelID) (domain.Membership, bool) {
	m := domain.NewMembership(room, channel)
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.Membership{}, false
	}
	e.membership = m
	log.Info().Str("module", "app.registry").Str("conn_id", string(id)).Str("room", string(m.RoomID)).Str("channel", string(m.ChannelID)).Msg("updated membership")
	return m, true
}

// Remove deletes the entry. Only the first caller gets ok=true, so the
// socket-close path and the failed-send path never both process a removal.
func (r *Registry) Remove(id core.ConnectionID) (core.Connection, bool) {
	r.mu.Lock()
	e, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()
	if !ok {
		return core.Connection{}, false
	}
	log.Info().Str("module", "app.registry").Str("conn_id", string(id)).Msg("removed connection")
	return e.snapshot(id), true
}

func (r *Registry) Get(id core.ConnectionID) (core.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return core.Connection{}, false
	}
	return e.snapshot(id), true
}

// Matching returns a lazy one-shot sequence. The snapshot is copied under
// the read lock when iteration starts and yielded after the lock is
// released; a second iteration yields nothing.
func (r *Registry) Matching(pred func(core.Connection) bool) iter.Seq[core.Connection] {
	var used atomic.Bool
	return func(yield func(core.Connection) bool) {
		if used.Swap(true) {
			return
		}
		for _, c := range r.snapshot(pred) {
			if !yield(c) {
				return
			}
		}
	}
}

func (r *Registry) snapshot(pred func(core.Connection) bool) []core.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Connection, 0, len(r.conns))
	for id, e := range r.conns {
		c := e.snapshot(id)
		if pred == nil || pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) MembersOfRoom(room domain.RoomID) int {
	n := 0
	for range r.Matching(InRoom(room)) {
		n++
	}
	return n
}

// InRoom matches every connection in room, regardless of channel.
func InRoom(room domain.RoomID) func(core.Connection) bool {
	return func(c core.Connection) bool {
		return room != "" && c.Membership.RoomID == room
	}
}

// InChannel matches connections whose room and channel both equal the ids.
func InChannel(room domain.RoomID, channel domain.ChannelID) func(core.Connection) bool {
	return func(c core.Connection) bool {
		return c.Membership.InChannel(room, channel)
	}
}
