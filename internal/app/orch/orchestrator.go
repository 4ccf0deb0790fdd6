package orch

import (
	"github.com/dkeye/huddle/internal/app"
	"github.com/dkeye/huddle/internal/core"
)

// Orchestrator routes already-parsed inbound requests from one connection
// to the registry, relay and chat dispatcher.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Bus      *app.Broadcaster
	Relay    *app.Relay
	Chat     *app.ChatDispatcher
	Users    core.UserStore
}

func New(reg *app.Registry, rooms *app.RoomManager, bus *app.Broadcaster, chat *app.ChatDispatcher, users core.UserStore) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Bus:      bus,
		Relay:    app.NewRelay(bus),
		Chat:     chat,
		Users:    users,
	}
}

// Reply sends event to the connection only.
func (o *Orchestrator) Reply(id core.ConnectionID, event any) error {
	return o.Bus.Send(id, event)
}
