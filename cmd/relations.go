package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlasgrid/geodir/internal/manifest"
	"github.com/atlasgrid/geodir/internal/pairwise"
	"github.com/atlasgrid/geodir/internal/region"
	"github.com/atlasgrid/geodir/internal/shard"
)

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "Generate the full pairwise direction table as CSV shards",
	Long: `Reads a polygon shapefile, derives one centroid per region, classifies the
compass direction of every ordered region pair, and writes the N·(N−1) rows
into a fixed number of contiguous-range CSV shards.

Shard membership and row order are a pure function of the input, so re-running
on the same shapefile reproduces byte-identical files. A manifest database in
the output directory records completed shards; --resume skips them.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rc := cfg.Relations
		if s, _ := cmd.Flags().GetString("shapefile"); s != "" {
			rc.Shapefile = s
		}
		if s, _ := cmd.Flags().GetString("out-dir"); s != "" {
			rc.OutDir = s
		}
		if n, _ := cmd.Flags().GetInt("block-size"); n > 0 {
			rc.BlockSize = n
		}
		if n, _ := cmd.Flags().GetInt("shards"); n > 0 {
			rc.Shards = n
		}
		if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
			rc.Workers = n
		}
		resume, _ := cmd.Flags().GetBool("resume")

		if rc.Shapefile == "" {
			return eris.New("relations: --shapefile is required")
		}

		log := zap.L().With(zap.String("command", "relations"))

		regions, drops, err := region.LoadShapefile(rc.Shapefile, region.Fields{
			Code:  rc.CodeField,
			Name:  rc.NameField,
			State: rc.StateField,
		})
		if err != nil {
			return eris.Wrap(err, "relations")
		}

		eng, err := pairwise.NewEngine(regions, rc.BlockSize)
		if err != nil {
			return eris.Wrap(err, "relations")
		}

		if err := os.MkdirAll(rc.OutDir, 0o755); err != nil {
			return eris.Wrapf(err, "relations: create output dir %s", rc.OutDir)
		}

		m, err := manifest.Open(filepath.Join(rc.OutDir, "manifest.db"))
		if err != nil {
			return eris.Wrap(err, "relations")
		}
		defer func() { _ = m.Close() }()
		if err := m.Migrate(ctx); err != nil {
			return eris.Wrap(err, "relations")
		}

		completed := map[int]bool{}
		if resume {
			done, err := m.CompletedShards(ctx)
			if err != nil {
				return eris.Wrap(err, "relations")
			}
			for idx := range done {
				completed[idx] = true
			}
			log.Info("resuming run", zap.Int("completed_shards", len(completed)))
		} else if err := m.ClearShards(ctx); err != nil {
			return eris.Wrap(err, "relations")
		}

		runID, err := m.StartRun(ctx, len(regions), eng.TotalPairs())
		if err != nil {
			return eris.Wrap(err, "relations")
		}

		markComplete := func(idx int, rows int64) error {
			return m.MarkShardComplete(ctx, idx, rows)
		}

		shardCfg := shard.Config{Dir: rc.OutDir, Count: rc.Shards}
		if rc.Workers > 1 {
			err = shard.RunParallel(ctx, eng, shardCfg, completed, rc.Workers, markComplete)
		} else {
			err = runSequential(ctx, eng, shardCfg, completed, markComplete)
		}
		if err != nil {
			return eris.Wrap(err, "relations")
		}

		if err := m.FinishRun(ctx, runID); err != nil {
			return eris.Wrap(err, "relations")
		}

		fmt.Printf("Wrote %d pairs over %d regions into %d shards in %s (%d records dropped)\n",
			eng.TotalPairs(), len(regions), rc.Shards, rc.OutDir, drops.Total())
		return nil
	},
}

// runSequential is the reference single-threaded path: strictly increasing
// row-blocks through one writer.
func runSequential(ctx context.Context, eng *pairwise.Engine, cfg shard.Config, completed map[int]bool, onComplete func(int, int64) error) error {
	w, err := shard.NewWriter(cfg, eng.Regions(), eng.TotalPairs())
	if err != nil {
		return err
	}
	w.SetSkip(completed)
	w.OnShardComplete(onComplete)

	if err := eng.Run(ctx, w.WriteBlock); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func init() {
	relationsCmd.Flags().String("shapefile", "", "path to the region polygon shapefile (.shp)")
	relationsCmd.Flags().String("out-dir", "", "output directory for shard files (default: from config)")
	relationsCmd.Flags().Int("block-size", 0, "regions per row-block (default: from config or 64)")
	relationsCmd.Flags().Int("shards", 0, "number of output shard files (default: from config or 20)")
	relationsCmd.Flags().Int("workers", 0, "concurrent shard workers; 1 = sequential reference mode")
	relationsCmd.Flags().Bool("resume", false, "skip shards recorded complete in the manifest")
	rootCmd.AddCommand(relationsCmd)
}
