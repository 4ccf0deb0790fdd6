package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type (
	RoomID    string
	ChannelID string
)

type ChannelKind string

const (
	ChannelText  ChannelKind = "text"
	ChannelVoice ChannelKind = "voice"
)

var (
	ErrRoomNameEmpty      = errors.New("room name empty")
	ErrChannelNameEmpty   = errors.New("channel name empty")
	ErrInvalidChannelKind = errors.New("channel type must be text or voice")
)

func (k ChannelKind) Valid() bool {
	return k == ChannelText || k == ChannelVoice
}

type Channel struct {
	ID   ChannelID   `json:"id"`
	Name string      `json:"name"`
	Kind ChannelKind `json:"type"`
}

// Room keeps its channels in creation order.
type Room struct {
	ID       RoomID    `json:"id"`
	Name     string    `json:"name"`
	Channels []Channel `json:"channels"`
}

func NewRoom(name string) (*Room, error) {
	if name == "" {
		return nil, ErrRoomNameEmpty
	}
	return &Room{ID: RoomID(uuid.NewString()), Name: name, Channels: []Channel{}}, nil
}

func NewChannel(name string, kind ChannelKind) (*Channel, error) {
	if name == "" {
		return nil, ErrChannelNameEmpty
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannelKind, kind)
	}
	return &Channel{ID: ChannelID(uuid.NewString()), Name: name, Kind: kind}, nil
}

func (r *Room) Channel(id ChannelID) (Channel, bool) {
	for _, ch := range r.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return Channel{}, false
}
