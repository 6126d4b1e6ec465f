package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sandevgo/voxmem/internal/config"
	"github.com/sandevgo/voxmem/pkg/env"
	"github.com/sandevgo/voxmem/pkg/log"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter .env with the effective defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}

		var sections []string
		for _, cfg := range []any{
			&config.AppConfig{},
			&config.RAGConfig{},
			&config.CacheConfig{},
			&config.OpenAIConfig{},
		} {
			content, err := env.MarshalEnv(cfg)
			if err != nil {
				return err
			}
			sections = append(sections, content)
		}

		envPath := filepath.Join(runtimePath, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", envPath)
		}

		if err := os.WriteFile(envPath, []byte(strings.Join(sections, "\n")), 0600); err != nil {
			return fmt.Errorf("failed to write .env: %w", err)
		}

		log.FromCtx(ctx).Info().Str("path", envPath).Msg("wrote starter configuration")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
