package app

import "github.com/dkeye/huddle/internal/core"

type DeliveryAction int

const (
	NoAction DeliveryAction = iota
	DropEvent
	KickMember
)

// Policy decides what happens to a recipient whose send failed.
type Policy interface {
	OnDeliveryFailure(conn core.Connection, err error) DeliveryAction
}

// SimplePolicy kicks every recipient that cannot take an event, so a slow
// socket never stalls the broadcaster.
type SimplePolicy struct{}

func (SimplePolicy) OnDeliveryFailure(core.Connection, error) DeliveryAction {
	return KickMember
}
