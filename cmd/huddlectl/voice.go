package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/huddle/internal/adapters/rtc"
	"github.com/dkeye/huddle/internal/client"
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var iceServers []string

var voiceCmd = &cobra.Command{
	Use:   "voice <room-id> <channel-id>",
	Short: "Join a voice channel with a silent microphone and report peer links",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		ctx := cmd.Context()
		sock, err := client.Dial(ctx, viper.GetString("server"), viper.GetString("token"))
		if err != nil {
			return err
		}
		defer sock.Close()

		self, err := whoami(ctx, sock)
		if err != nil {
			return err
		}

		mic, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "huddlectl")
		if err != nil {
			return err
		}
		go writeSilence(ctx, mic)

		servers := iceServers
		if !cmd.Flags().Changed("ice") {
			if servers, err = api().ICEServers(ctx); err != nil {
				return err
			}
		}

		stats := &client.TrackStats{}
		factory := client.MediaFactory(rtc.Config(servers), stats)
		session, err := client.JoinVoice(ctx, sock, self.ID, domain.RoomID(args[0]), domain.ChannelID(args[1]), factory, mic)
		if err != nil {
			return err
		}
		go session.Run(ctx, sock.Incoming())
		fmt.Printf("joined voice as %s, ctrl-c to leave\n", self.Username)

		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return session.Leave()
			case <-ticker.C:
				fmt.Printf("links: %d  rtp packets: %d  bytes: %d\n",
					session.Links(), stats.Packets.Load(), stats.Bytes.Load())
			}
		}
	},
}

// whoami asks the server who this token belongs to.
func whoami(ctx context.Context, sock *client.Socket) (*domain.User, error) {
	if err := sock.Whoami(); err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-sock.Incoming():
			if !ok {
				return nil, fmt.Errorf("connection closed")
			}
			if ev.Type != "whoami" {
				continue
			}
			var w core.WhoamiEvent
			if err := ev.Decode(&w); err != nil {
				return nil, err
			}
			return &w.User, nil
		}
	}
}

// opusSilence is one 20ms Opus frame of silence.
var opusSilence = []byte{0xf8, 0xff, 0xfe}

func writeSilence(ctx context.Context, track *webrtc.TrackLocalStaticSample) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := track.WriteSample(media.Sample{Data: opusSilence, Duration: 20 * time.Millisecond}); err != nil {
				return
			}
		}
	}
}

func init() {
	voiceCmd.Flags().StringSliceVar(&iceServers, "ice", nil, "STUN/TURN server URL (repeatable); defaults to the server's list")
}
