package domain

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyContent = errors.New("message content is required")

type MessageID string

// ChatMessage is immutable once created.
type ChatMessage struct {
	ID          MessageID `json:"id"`
	User        User      `json:"user"`
	Text        string    `json:"text"`
	Emoji       string    `json:"emoji"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MessageKey addresses the ordered message log of one channel.
type MessageKey struct {
	RoomID    RoomID
	ChannelID ChannelID
}

func (k MessageKey) String() string { return string(k.RoomID) + ":" + string(k.ChannelID) }

func NewChatMessage(author User, text, emoji string, attachments []string, now time.Time) (*ChatMessage, error) {
	if text == "" && emoji == "" && len(attachments) == 0 {
		return nil, ErrEmptyContent
	}
	atts := slices.Clone(attachments)
	if atts == nil {
		atts = []string{}
	}
	return &ChatMessage{
		ID:          MessageID(uuid.NewString()),
		User:        author,
		Text:        text,
		Emoji:       emoji,
		Attachments: atts,
		CreatedAt:   now.UTC(),
	}, nil
}
