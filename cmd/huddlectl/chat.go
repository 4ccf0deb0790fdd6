package main

import (
	"fmt"
	"strings"

	"github.com/dkeye/huddle/internal/client"
	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	sayEmoji       string
	sayAttachments []string
)

var sayCmd = &cobra.Command{
	Use:   "say <room-id> <channel-id> [text...]",
	Short: "Post a chat message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		key := domain.MessageKey{RoomID: domain.RoomID(args[0]), ChannelID: domain.ChannelID(args[1])}
		msg, err := api().PostMessage(cmd.Context(), key, strings.Join(args[2:], " "), sayEmoji, sayAttachments)
		if err != nil {
			return err
		}
		fmt.Printf("posted %s\n", msg.ID)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <room-id> <channel-id>",
	Short: "Print a channel's messages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		key := domain.MessageKey{RoomID: domain.RoomID(args[0]), ChannelID: domain.ChannelID(args[1])}
		msgs, err := api().Messages(cmd.Context(), key)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			printMessage(&m)
		}
		return nil
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen <room-id> [channel-id]",
	Short: "Join a room and print chat as it arrives",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		sock, err := client.Dial(cmd.Context(), viper.GetString("server"), viper.GetString("token"))
		if err != nil {
			return err
		}
		defer sock.Close()

		var channel domain.ChannelID
		if len(args) == 2 {
			channel = domain.ChannelID(args[1])
		}
		if err := sock.Join(domain.RoomID(args[0]), channel); err != nil {
			return err
		}

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case ev, ok := <-sock.Incoming():
				if !ok {
					return fmt.Errorf("connection closed")
				}
				switch ev.Type {
				case "chat":
					var c core.ChatEvent
					if err := ev.Decode(&c); err == nil {
						printMessage(c.Message)
					}
				case "error":
					var e core.ErrorEvent
					_ = ev.Decode(&e)
					fmt.Println("server:", e.Message)
				}
			}
		}
	},
}

func printMessage(m *domain.ChatMessage) {
	line := m.Text
	if m.Emoji != "" {
		line = strings.TrimSpace(line + " " + m.Emoji)
	}
	for _, a := range m.Attachments {
		line += " [" + a + "]"
	}
	fmt.Printf("%s  %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), m.User.Username, line)
}

func init() {
	sayCmd.Flags().StringVar(&sayEmoji, "emoji", "", "emoji to attach")
	sayCmd.Flags().StringSliceVar(&sayAttachments, "attach", nil, "attachment URL (repeatable)")
}
