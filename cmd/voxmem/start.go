package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"

	"github.com/sandevgo/voxmem/pkg/log"
	"github.com/sandevgo/voxmem/pkg/srv"
	"github.com/spf13/cobra"
)

var (
	startUserID         string
	startConversationID string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start voxmem with an interactive console session",
	Long:  `Starts the background services and reads utterances from stdin, printing the retrieval decision for each turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting voxmem")

		p := buildPipeline(ctx)
		srv.StartServices(ctx, p.services)

		go func() {
			defer stop()
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				message := scanner.Text()
				if message == "" {
					continue
				}
				result := p.orchestrator.ProcessMessage(ctx, startConversationID, startUserID, message)
				if result.ShouldInjectContext {
					fmt.Printf("inject:\n%s\n", result.RelevantMemories)
				} else {
					fmt.Println("no context for this turn")
				}
			}
		}()

		srv.ShutdownServices(ctx, p.services)
		logger.Info().Msg("voxmem has been shut down gracefully")
		return nil
	},
}

func init() {
	startCmd.Flags().StringVarP(&startUserID, "user", "u", "local", "user id for the session")
	startCmd.Flags().StringVarP(&startConversationID, "conversation", "c", "console", "conversation id for the session")
	rootCmd.AddCommand(startCmd)
}
