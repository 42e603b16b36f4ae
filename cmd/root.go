package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jpmusenge/local-biz-agent/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "local-biz-agent",
	Short: "Finds local businesses without websites and builds them one",
	Long:  "Discovers local businesses lacking a web presence, generates marketing websites with an AI provider, and deploys them to hosting, tracking each business through a simple pipeline.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
