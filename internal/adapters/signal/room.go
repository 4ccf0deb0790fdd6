package signal

import (
	"context"

	"github.com/dkeye/huddle/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(id core.ConnectionID, req JoinRequest) {
	m, err := ctl.Orch.Join(id, req.RoomID, req.ChannelID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("join failed")
		return
	}
	ctl.reply(id, core.NewJoinedEvent(m))
}

func (ctl *SignalWSController) handleRelay(id core.ConnectionID, req SignalRequest) {
	if err := ctl.Orch.Signal(id, req.Envelope); err != nil {
		ctl.replyError(id, err)
	}
}

// handleChat posts into the connection's current channel. The author sees
// the message through the room broadcast like everyone else.
func (ctl *SignalWSController) handleChat(ctx context.Context, id core.ConnectionID, req ChatRequest) {
	if _, err := ctl.Orch.PostChat(ctx, id, req.Text, req.Emoji, req.Attachments); err != nil {
		ctl.replyError(id, err)
	}
}
