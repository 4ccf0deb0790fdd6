package core

import "github.com/dkeye/huddle/internal/domain"

type ConnectionID string

// UserKey is the request context key holding the authenticated *domain.User.
const UserKey = "user"

// Connection is a read-only snapshot of a registry entry. Snapshots are
// copied under the registry lock, so membership is never half-updated.
type Connection struct {
	ID         ConnectionID
	User       domain.User
	Membership domain.Membership
	Signal     SignalConnection
}

func (c Connection) Joined() bool { return c.Membership.Joined() }
