package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askUserID         string
	askConversationID string
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run the retrieval decision for a single utterance",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		p := buildPipeline(ctx)

		message := strings.Join(args, " ")
		result := p.orchestrator.ProcessMessage(ctx, askConversationID, askUserID, message)

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "local", "user id")
	askCmd.Flags().StringVarP(&askConversationID, "conversation", "c", "console", "conversation id")
	rootCmd.AddCommand(askCmd)
}
