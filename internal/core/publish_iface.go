package core

import "github.com/dkeye/huddle/internal/domain"

//go:generate mockgen -destination=../app/mocks/publisher_mock.go -package=mocks github.com/dkeye/huddle/internal/core Publisher

// PublishResult reports delivery stats to the caller. Dropped recipients
// have already been removed from the registry.
type PublishResult struct {
	SendTo  int
	Dropped []ConnectionID
}

// Publisher fans an event out to registry connections.
type Publisher interface {
	ToRoom(room domain.RoomID, event any) PublishResult
	ToChannel(room domain.RoomID, channel domain.ChannelID, event any, skip ...ConnectionID) PublishResult
}
