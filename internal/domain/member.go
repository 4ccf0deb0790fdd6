package domain

// Membership is the (room, channel) pair a connection currently belongs to.
// Empty ids mean "not joined".
type Membership struct {
	RoomID    RoomID    `json:"roomId,omitempty"`
	ChannelID ChannelID `json:"channelId,omitempty"`
}

// NewMembership normalizes a join request: no room means no channel either.
func NewMembership(room RoomID, channel ChannelID) Membership {
	if room == "" {
		return Membership{}
	}
	return Membership{RoomID: room, ChannelID: channel}
}

func (m Membership) Joined() bool { return m.RoomID != "" }

// InChannel reports exact (room, channel) match. A membership without a
// channel never matches a concrete channel id, and an empty channel id
// matches nobody.
func (m Membership) InChannel(room RoomID, channel ChannelID) bool {
	return channel != "" && m.RoomID == room && m.ChannelID == channel
}
