package signal

import (
	"errors"
	"testing"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Inbound
		wantErr error
	}{
		{"join", `{"type":"join","roomId":"r1","channelId":"v1"}`, JoinRequest{RoomID: "r1", ChannelID: "v1"}, nil},
		{"join without channel", `{"type":"join","roomId":"r1"}`, JoinRequest{RoomID: "r1"}, nil},
		{"leave", `{"type":"join","roomId":null,"channelId":null}`, JoinRequest{}, nil},
		{"chat", `{"type":"chat","text":"hi","emoji":"👍","attachments":["/uploads/a.png"]}`,
			ChatRequest{Text: "hi", Emoji: "👍", Attachments: []string{"/uploads/a.png"}}, nil},
		{"ping", `{"type":"ping"}`, PingRequest{}, nil},
		{"whoami", `{"type":"whoami"}`, WhoamiRequest{}, nil},
		{"not json", `hello`, nil, core.ErrMalformedMessage},
		{"truncated", `{"type":"join"`, nil, core.ErrMalformedMessage},
		{"bad field type", `{"type":"join","roomId":7}`, nil, core.ErrMalformedMessage},
		{"unknown type", `{"type":"dance"}`, nil, core.ErrUnknownMessage},
		{"missing type", `{}`, nil, core.ErrUnknownMessage},
		{"signal without payload", `{"type":"signal","channelId":"v1"}`, nil, core.ErrUnknownMessage},
		{"signal null payload", `{"type":"signal","channelId":"v1","payload":null}`, nil, core.ErrUnknownMessage},
		{"signal scalar payload", `{"type":"signal","channelId":"v1","payload":"offer"}`, nil, core.ErrUnknownMessage},
		{"signal bad kind", `{"type":"signal","channelId":"v1","payload":{"type":"bye"}}`, nil, core.ErrUnknownMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInbound([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSignalKeepsPayloadBytes(t *testing.T) {
	payload := `{"type":"candidate","targetId":"bob","candidate":{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host","sdpMid":"0"},"extra":[1,2]}`
	got, err := ParseInbound([]byte(`{"type":"signal","channelId":"v1","payload":` + payload + `}`))
	require.NoError(t, err)

	req, ok := got.(SignalRequest)
	require.True(t, ok)
	assert.Equal(t, domain.SignalCandidate, req.Envelope.Kind)
	assert.Equal(t, domain.ChannelID("v1"), req.Envelope.ChannelID)
	assert.Equal(t, domain.UserID("bob"), req.Envelope.TargetID)
	assert.Equal(t, payload, string(req.Envelope.Payload))
	assert.Empty(t, req.Envelope.From.ID, "sender is stamped by the relay, not the client")
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.ErrNotJoined, "Join a room first"},
		{errors.Join(core.ErrMalformedMessage, errors.New("eof")), "Invalid JSON"},
		{core.ErrUnknownMessage, "Unknown message"},
		{domain.ErrEmptyContent, "Message content is required"},
		{core.ErrRateLimited, "Too many messages"},
		{errors.New("disk full"), "Internal error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorText(tt.err), tt.err.Error())
	}
}
