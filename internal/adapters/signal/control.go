package signal

import (
	"context"

	"github.com/dkeye/huddle/internal/core"
)

func (ctl *SignalWSController) dispatch(ctx context.Context, id core.ConnectionID, data []byte) {
	msg, err := ParseInbound(data)
	if err != nil {
		ctl.replyError(id, err)
		return
	}

	switch m := msg.(type) {
	case JoinRequest:
		ctl.handleJoin(id, m)
	case SignalRequest:
		ctl.handleRelay(id, m)
	case ChatRequest:
		ctl.handleChat(ctx, id, m)
	case PingRequest:
		ctl.reply(id, core.NewPongEvent())
	case WhoamiRequest:
		ctl.handleWhoAmI(id)
	}
}

func (ctl *SignalWSController) handleWhoAmI(id core.ConnectionID) {
	c, ok := ctl.Orch.Whoami(id)
	if !ok {
		return
	}
	ctl.reply(id, core.NewWhoamiEvent(c))
}
