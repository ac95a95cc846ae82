package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rosterforge/legend-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "legend-engine",
	Short: "Legend scoring and roster allocation engine",
	Long:  "Normalizes career statistics across eras, detects peak windows, gates eligibility, ranks candidates, and allocates quota-bounded roster slots with bounded attribute ratings.",
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
