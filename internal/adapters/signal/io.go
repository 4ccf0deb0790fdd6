package signal

import (
	"context"
	"time"

	"github.com/dkeye/huddle/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, id core.ConnectionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Options.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn_id", string(id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn_id", string(id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Options.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Options.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("writePump ping error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, id core.ConnectionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn_id", string(id)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Options.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Options.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Options.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn_id", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(ctx, id, data)
		}
	}
}

// reply queues event for this connection only.
func (ctl *SignalWSController) reply(id core.ConnectionID, v any) {
	if err := ctl.Orch.Reply(id, v); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("reply dropped")
	}
}

func (ctl *SignalWSController) replyError(id core.ConnectionID, err error) {
	log.Debug().Err(err).Str("module", "signal").Str("conn_id", string(id)).Msg("request rejected")
	ctl.reply(id, core.NewErrorEvent(ErrorText(err)))
}
