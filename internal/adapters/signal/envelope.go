package signal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
)

// Inbound is one parsed client request. The set of variants is closed.
type Inbound interface {
	inbound()
}

type JoinRequest struct {
	RoomID    domain.RoomID    `json:"roomId"`
	ChannelID domain.ChannelID `json:"channelId"`
}

type SignalRequest struct {
	Envelope domain.SignalEnvelope
}

type ChatRequest struct {
	Text        string   `json:"text"`
	Emoji       string   `json:"emoji"`
	Attachments []string `json:"attachments"`
}

type PingRequest struct{}

type WhoamiRequest struct{}

func (JoinRequest) inbound()   {}
func (SignalRequest) inbound() {}
func (ChatRequest) inbound()   {}
func (PingRequest) inbound()   {}
func (WhoamiRequest) inbound() {}

// ParseInbound decodes a client frame into its variant. Non-JSON input
// yields ErrMalformedMessage; an unknown type or signal kind yields
// ErrUnknownMessage.
func ParseInbound(data []byte) (Inbound, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Join(core.ErrMalformedMessage, err)
	}

	switch head.Type {
	case "join":
		var req JoinRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, errors.Join(core.ErrMalformedMessage, err)
		}
		return req, nil
	case "signal":
		return parseSignal(data)
	case "chat":
		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, errors.Join(core.ErrMalformedMessage, err)
		}
		return req, nil
	case "ping":
		return PingRequest{}, nil
	case "whoami":
		return WhoamiRequest{}, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownMessage, head.Type)
}

// parseSignal validates the payload kind once here; the payload bytes are
// forwarded untouched.
func parseSignal(data []byte) (Inbound, error) {
	var req struct {
		ChannelID domain.ChannelID `json:"channelId"`
		Payload   json.RawMessage  `json:"payload"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.Join(core.ErrMalformedMessage, err)
	}
	if len(req.Payload) == 0 || bytes.Equal(req.Payload, []byte("null")) {
		return nil, fmt.Errorf("%w: signal without payload", core.ErrUnknownMessage)
	}

	var head struct {
		Type     domain.SignalKind `json:"type"`
		TargetID domain.UserID     `json:"targetId"`
	}
	if err := json.Unmarshal(req.Payload, &head); err != nil {
		return nil, fmt.Errorf("%w: signal payload: %v", core.ErrUnknownMessage, err)
	}
	if !head.Type.Valid() {
		return nil, fmt.Errorf("%w: signal kind %q", core.ErrUnknownMessage, head.Type)
	}

	return SignalRequest{Envelope: domain.SignalEnvelope{
		Kind:      head.Type,
		ChannelID: req.ChannelID,
		TargetID:  head.TargetID,
		Payload:   req.Payload,
	}}, nil
}

// ErrorText maps a request error to the message shown to the client.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, core.ErrNotJoined):
		return "Join a room first"
	case errors.Is(err, core.ErrMalformedMessage):
		return "Invalid JSON"
	case errors.Is(err, core.ErrUnknownMessage):
		return "Unknown message"
	case errors.Is(err, domain.ErrEmptyContent):
		return "Message content is required"
	case errors.Is(err, core.ErrRateLimited):
		return "Too many messages"
	}
	return "Internal error"
}
