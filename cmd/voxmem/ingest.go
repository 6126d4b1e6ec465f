package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	ingestUserID         string
	ingestConversationID string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [highlight]",
	Short: "Store a highlight for later retrieval",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		p := buildPipeline(ctx)

		content := strings.Join(args, " ")
		h, err := p.ingestor.IngestHighlight(ctx, ingestUserID, ingestConversationID, content)
		if err != nil {
			return err
		}

		fmt.Printf("stored highlight %s for user %s\n", h.ID, h.UserID)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestUserID, "user", "u", "local", "user id owning the highlight")
	ingestCmd.Flags().StringVarP(&ingestConversationID, "conversation", "c", "", "source conversation id")
	rootCmd.AddCommand(ingestCmd)
}
