package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasgrid/geodir/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geodir",
	Short: "Pairwise directional-relation tables for polygon region datasets",
	Long:  "Reduces a polygon shapefile of named regions to centroids, classifies the compass direction of every ordered region pair into 8 sectors, and writes the result as deterministic CSV shards.",
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
