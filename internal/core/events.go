package core

import (
	"encoding/json"

	"github.com/dkeye/huddle/internal/domain"
)

// Outbound wire events.

type ChatEvent struct {
	Type      string              `json:"type"`
	RoomID    domain.RoomID       `json:"roomId"`
	ChannelID domain.ChannelID    `json:"channelId"`
	Message   *domain.ChatMessage `json:"message"`
}

func NewChatEvent(key domain.MessageKey, msg *domain.ChatMessage) ChatEvent {
	return ChatEvent{Type: "chat", RoomID: key.RoomID, ChannelID: key.ChannelID, Message: msg}
}

type SignalEvent struct {
	Type      string           `json:"type"`
	From      domain.User      `json:"from"`
	ChannelID domain.ChannelID `json:"channelId"`
	Payload   json.RawMessage  `json:"payload"`
}

func NewSignalEvent(env domain.SignalEnvelope) SignalEvent {
	return SignalEvent{Type: "signal", From: env.From, ChannelID: env.ChannelID, Payload: env.Payload}
}

type JoinedEvent struct {
	Type      string            `json:"type"`
	RoomID    *domain.RoomID    `json:"roomId"`
	ChannelID *domain.ChannelID `json:"channelId"`
}

// NewJoinedEvent renders cleared ids as JSON null.
func NewJoinedEvent(m domain.Membership) JoinedEvent {
	ev := JoinedEvent{Type: "joined"}
	if m.RoomID != "" {
		ev.RoomID = &m.RoomID
	}
	if m.ChannelID != "" {
		ev.ChannelID = &m.ChannelID
	}
	return ev
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(msg string) ErrorEvent { return ErrorEvent{Type: "error", Message: msg} }

type PongEvent struct {
	Type string `json:"type"`
}

func NewPongEvent() PongEvent { return PongEvent{Type: "pong"} }

type WhoamiEvent struct {
	Type      string            `json:"type"`
	User      domain.User       `json:"user"`
	RoomID    *domain.RoomID    `json:"roomId"`
	ChannelID *domain.ChannelID `json:"channelId"`
}

func NewWhoamiEvent(c Connection) WhoamiEvent {
	j := NewJoinedEvent(c.Membership)
	return WhoamiEvent{Type: "whoami", User: c.User, RoomID: j.RoomID, ChannelID: j.ChannelID}
}
