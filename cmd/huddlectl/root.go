package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/dkeye/huddle/internal/client"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "huddlectl",
	Short: "Command-line participant for a huddle server",
	Long: `huddlectl registers users, manages rooms and channels, posts chat and
joins voice channels against a huddle server.

Settings come from flags or HUDDLE_* environment variables, e.g.
HUDDLE_SERVER and HUDDLE_TOKEN.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "server base URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token from `huddlectl register`")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	for _, name := range []string{"server", "token", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	viper.SetEnvPrefix("HUDDLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(registerCmd, roomsCmd, channelCmd, sayCmd, historyCmd, listenCmd, voiceCmd)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func api() *client.API {
	return client.NewAPI(viper.GetString("server"), viper.GetString("token"))
}

func requireToken() error {
	if viper.GetString("token") == "" {
		return errors.New("no token: run `huddlectl register` and pass --token or HUDDLE_TOKEN")
	}
	return nil
}
