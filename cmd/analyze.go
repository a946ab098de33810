package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/atlasgrid/geodir/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize the direction distribution over generated shards",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Relations.OutDir
		}

		dist, err := report.DirectionDistribution(ctx, dir)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		fmt.Printf("%-10s %14s %10s\n", "Direction", "Count", "Percent")
		fmt.Println(strings.Repeat("-", 36))
		for _, label := range dist.Labels() {
			fmt.Printf("%-10s %14d %9.2f%%\n", label, dist.Counts[label], dist.Percent(label))
		}
		fmt.Println(strings.Repeat("-", 36))
		fmt.Printf("%-10s %14d over %d files\n", "total", dist.Total, dist.Files)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("dir", "", "directory holding shard files (default: relations.out_dir)")
	rootCmd.AddCommand(analyzeCmd)
}
