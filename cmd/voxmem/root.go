package main

import (
	"context"
	"os"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "voxmem",
	Short: "Conversational memory for voice agents",
	Long:  `Voxmem decides, turn by turn, whether a spoken utterance merits retrieving relevant history from prior conversations, and formats that history for context injection.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
