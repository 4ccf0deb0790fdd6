package main

import (
	"fmt"

	"github.com/dkeye/huddle/internal/domain"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create a user and print its token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := api().Register(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("user:  %s (%s)\ntoken: %s\n", reg.Username, reg.UserID, reg.Token)
		return nil
	},
}

var roomsCmd = &cobra.Command{
	Use:   "rooms [new-room-name]",
	Short: "List rooms, or create one when a name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		if len(args) == 1 {
			room, err := api().CreateRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created room %s %s\n", room.ID, room.Name)
			return nil
		}
		rooms, err := api().Rooms(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range rooms {
			fmt.Printf("%s  %s\n", r.ID, r.Name)
			for _, ch := range r.Channels {
				fmt.Printf("    %-5s %s  %s\n", ch.Kind, ch.ID, ch.Name)
			}
		}
		return nil
	},
}

var channelKind string

var channelCmd = &cobra.Command{
	Use:   "channel <room-id> <name>",
	Short: "Create a text or voice channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		ch, err := api().CreateChannel(cmd.Context(), domain.RoomID(args[0]), args[1], domain.ChannelKind(channelKind))
		if err != nil {
			return err
		}
		fmt.Printf("created %s channel %s %s\n", ch.Kind, ch.ID, ch.Name)
		return nil
	},
}

func init() {
	channelCmd.Flags().StringVar(&channelKind, "type", string(domain.ChannelText), "channel type: text or voice")
}
