// Package report summarizes generated shard files.
package report

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasgrid/geodir/internal/csvio"
)

// ShardGlob matches the shard files produced by the relations command.
const ShardGlob = "city_relations_part_*.csv"

// Distribution is the per-label row count over a set of shard files.
type Distribution struct {
	Counts map[string]int64
	Total  int64
	Files  int
}

// Percent returns a label's share of all rows, in percent.
func (d Distribution) Percent(label string) float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Counts[label]) / float64(d.Total) * 100
}

// Labels returns the observed labels in sorted order.
func (d Distribution) Labels() []string {
	labels := make([]string, 0, len(d.Counts))
	for l := range d.Counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// DirectionDistribution streams every shard file in dir and tallies the
// direction column. Shards are read one at a time; memory stays flat no
// matter how many rows the shards hold.
func DirectionDistribution(ctx context.Context, dir string) (Distribution, error) {
	files, err := filepath.Glob(filepath.Join(dir, ShardGlob))
	if err != nil {
		return Distribution{}, eris.Wrapf(err, "report: glob %s", dir)
	}
	if len(files) == 0 {
		return Distribution{}, eris.Errorf("report: no shard files in %s", dir)
	}
	sort.Strings(files)

	dist := Distribution{Counts: make(map[string]int64), Files: len(files)}
	log := zap.L().With(zap.String("component", "report"))

	for _, path := range files {
		if err := tallyFile(ctx, path, &dist); err != nil {
			return Distribution{}, err
		}
		log.Debug("tallied shard", zap.String("file", path))
	}

	log.Info("distribution computed", zap.Int("files", dist.Files), zap.Int64("rows", dist.Total))
	return dist, nil
}

func tallyFile(ctx context.Context, path string, dist *Distribution) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "report: open %s", path)
	}
	defer func() { _ = f.Close() }()

	rowCh, errCh := csvio.Stream(ctx, f, csvio.Options{HasHeader: true})
	for row := range rowCh {
		if len(row) == 0 {
			continue
		}
		dir := row[len(row)-1] // direction is the final column
		dist.Counts[dir]++
		dist.Total++
	}
	if err := <-errCh; err != nil {
		return eris.Wrapf(err, "report: read %s", path)
	}
	return nil
}
