package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "farewatch",
	Short: "Flight fare search and price monitoring",
	Long:  "Collects flight fares from live result pages through a local Chrome, tracks watched routes, and pushes price-change alerts to a chat gateway.",
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
