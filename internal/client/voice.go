package client

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dkeye/huddle/internal/adapters/rtc"
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/dkeye/huddle/internal/peer"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Transport is the part of Socket a voice session needs.
type Transport interface {
	Send(v any) error
	Join(room domain.RoomID, channel domain.ChannelID) error
}

type signalRequest struct {
	Type      string           `json:"type"`
	ChannelID domain.ChannelID `json:"channelId"`
	Payload   peer.Payload     `json:"payload"`
}

// VoiceSession is one participant's presence in a voice channel.
type VoiceSession struct {
	tr      Transport
	room    domain.RoomID
	channel domain.ChannelID
	neg     *peer.Negotiator
}

// JoinVoice joins (room, channel) and announces readiness. Existing
// participants answer with offers.
func JoinVoice(
	ctx context.Context,
	tr Transport,
	self domain.UserID,
	room domain.RoomID,
	channel domain.ChannelID,
	factory peer.MediaFactory,
	tracks ...webrtc.TrackLocal,
) (*VoiceSession, error) {
	v := &VoiceSession{tr: tr, room: room, channel: channel}
	v.neg = peer.NewNegotiator(ctx, self, channel, factory, v.sendSignal)
	for _, t := range tracks {
		if err := v.neg.AddLocalTrack(t); err != nil {
			return nil, err
		}
	}
	if err := tr.Join(room, channel); err != nil {
		return nil, err
	}
	if err := v.neg.Ready(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "client.voice").Str("room", string(room)).Str("channel", string(channel)).Msg("joined voice")
	return v, nil
}

func (v *VoiceSession) sendSignal(p peer.Payload) error {
	return v.tr.Send(signalRequest{Type: "signal", ChannelID: v.channel, Payload: p})
}

// Handle feeds one server event to the negotiator. Non-signal events are
// ignored.
func (v *VoiceSession) Handle(ev Event) error {
	if ev.Type != "signal" {
		return nil
	}
	var se core.SignalEvent
	if err := ev.Decode(&se); err != nil {
		return errors.Join(core.ErrMalformedMessage, err)
	}
	return v.neg.HandleEvent(se)
}

// Run handles events until ctx ends or the channel closes. Negotiation
// errors are logged and do not end the session.
func (v *VoiceSession) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == "error" {
				var e core.ErrorEvent
				_ = ev.Decode(&e)
				log.Warn().Str("module", "client.voice").Str("message", e.Message).Msg("server error")
				continue
			}
			if err := v.Handle(ev); err != nil {
				log.Warn().Err(err).Str("module", "client.voice").Msg("signal not applied")
			}
		}
	}
}

// ShareScreen attaches track to every current and future link, then
// re-announces readiness so peers renegotiate.
func (v *VoiceSession) ShareScreen(track webrtc.TrackLocal) error {
	if err := v.neg.AddLocalTrack(track); err != nil {
		return err
	}
	return v.neg.Ready()
}

// Leave closes every link and drops the channel while staying in the room.
func (v *VoiceSession) Leave() error {
	v.neg.Leave()
	return v.tr.Join(v.room, "")
}

func (v *VoiceSession) State(remote domain.UserID) (peer.State, bool) { return v.neg.State(remote) }

func (v *VoiceSession) Links() int { return v.neg.Links() }

// TrackStats counts RTP traffic received on remote tracks.
type TrackStats struct {
	Packets atomic.Int64
	Bytes   atomic.Int64
}

// MediaFactory builds pion connections whose remote tracks are drained into
// stats.
func MediaFactory(cfg webrtc.Configuration, stats *TrackStats) peer.MediaFactory {
	return func(remote domain.UserID) (core.MediaConnection, error) {
		conn, err := rtc.NewWebRTCConnection(cfg, remote)
		if err != nil {
			return nil, err
		}
		conn.OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			go drain(ctx, remote, track, stats)
		})
		return conn, nil
	}
}

func drain(ctx context.Context, remote domain.UserID, track *webrtc.TrackRemote, stats *TrackStats) {
	for ctx.Err() == nil {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Debug().Err(err).Str("module", "client.voice").Str("remote", string(remote)).Msg("track ended")
			return
		}
		stats.observe(pkt)
	}
}

func (s *TrackStats) observe(pkt *rtp.Packet) {
	if s == nil {
		return
	}
	s.Packets.Add(1)
	s.Bytes.Add(int64(len(pkt.Payload)))
}
