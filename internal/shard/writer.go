// Package shard distributes the pairwise row stream across a fixed number
// of append-only CSV partitions with a deterministic index-based assignment.
package shard

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasgrid/geodir/internal/pairwise"
	"github.com/atlasgrid/geodir/internal/region"
)

// DefaultCount is the reference number of output partitions.
const DefaultCount = 20

// Header is the column order of every shard file.
var Header = []string{
	"city1_name", "city1_latitude", "city1_longitude",
	"city2_name", "city2_latitude", "city2_longitude",
	"direction",
}

// Config sizes the shard layout.
type Config struct {
	Dir   string // output directory, created if missing
	Count int    // number of partitions K
}

// Writer assigns each pair row to a partition by its linear pair index,
// using contiguous ranges: shard s holds indices [s·chunk, (s+1)·chunk)
// with chunk = ceil(total/K). Contiguous assignment was chosen over modulo
// so a single shard can be recomputed from its index range alone.
//
// Because the engine emits indices in increasing order, the sequential path
// keeps at most one shard file open at a time; a finished shard is flushed
// and closed before the next one opens, so a crash leaves completed shards
// valid on disk.
type Writer struct {
	cfg     Config
	regions []region.Region
	total   int64
	chunk   int64

	open       map[int]*shardFile
	skip       map[int]bool
	onComplete func(idx int, rows int64) error
}

type shardFile struct {
	idx  int
	f    *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
	rows int64
}

// NewWriter creates the output directory and prepares a writer for the
// given total pair count. Files are opened lazily as their first row
// arrives.
func NewWriter(cfg Config, regions []region.Region, total int64) (*Writer, error) {
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if total <= 0 {
		return nil, eris.Errorf("shard: total pair count must be positive, got %d", total)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "shard: create output dir %s", cfg.Dir)
	}

	chunk := (total + int64(cfg.Count) - 1) / int64(cfg.Count)
	return &Writer{
		cfg:     cfg,
		regions: regions,
		total:   total,
		chunk:   chunk,
		open:    map[int]*shardFile{},
		skip:    map[int]bool{},
	}, nil
}

// Count returns the number of partitions K.
func (w *Writer) Count() int { return w.cfg.Count }

// ShardFor returns the partition index owning linear pair index p.
func (w *Writer) ShardFor(p int64) int { return int(p / w.chunk) }

// Range returns the pair-index range assigned to shard s. The final shard
// may be short or, when total is not divisible, empty.
func (w *Writer) Range(s int) pairwise.Range {
	lo := int64(s) * w.chunk
	hi := lo + w.chunk
	if lo > w.total {
		lo = w.total
	}
	if hi > w.total {
		hi = w.total
	}
	return pairwise.Range{Lo: lo, Hi: hi}
}

// Path returns the file path for shard s. Naming is 1-based to match the
// part_<i>_of_<K> convention of the downstream consumers.
func (w *Writer) Path(s int) string {
	return filepath.Join(w.cfg.Dir, fmt.Sprintf("city_relations_part_%d_of_%d.csv", s+1, w.cfg.Count))
}

// SetSkip marks shards whose rows should be dropped without writing,
// used when resuming a run with some shards already complete.
func (w *Writer) SetSkip(completed map[int]bool) {
	for s, done := range completed {
		if done {
			w.skip[s] = true
		}
	}
}

// OnShardComplete registers a hook invoked after a shard file has been
// flushed and closed, with its final row count.
func (w *Writer) OnShardComplete(fn func(idx int, rows int64) error) {
	w.onComplete = fn
}

// WriteBlock appends a block of classified pairs, routing each row to the
// shard owning its linear index. Rows in a block are index-ordered; when
// the stream moves past a shard's upper bound that shard is closed.
func (w *Writer) WriteBlock(start int64, pairs []pairwise.Pair) error {
	var rec [7]string
	for off, pr := range pairs {
		p := start + int64(off)
		s := w.ShardFor(p)
		if w.skip[s] {
			continue
		}

		sf, err := w.shard(s)
		if err != nil {
			return err
		}

		src := w.regions[pr.I]
		dst := w.regions[pr.J]
		rec[0] = src.Name
		rec[1] = formatCoord(src.Lat)
		rec[2] = formatCoord(src.Lon)
		rec[3] = dst.Name
		rec[4] = formatCoord(dst.Lat)
		rec[5] = formatCoord(dst.Lon)
		rec[6] = string(pr.Dir)
		if err := sf.csv.Write(rec[:]); err != nil {
			return eris.Wrapf(err, "shard: write row %d to shard %d", p, s)
		}
		sf.rows++

		// Shard boundary reached: the stream never revisits it.
		if p+1 == w.Range(s).Hi {
			if err := w.closeShard(sf); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes and closes any shard files still open.
func (w *Writer) Close() error {
	for _, sf := range w.open {
		if err := w.closeShard(sf); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) shard(s int) (*shardFile, error) {
	if sf, ok := w.open[s]; ok {
		return sf, nil
	}
	if s < 0 || s >= w.cfg.Count {
		return nil, eris.Errorf("shard: index %d out of range [0, %d)", s, w.cfg.Count)
	}

	path := w.Path(s)
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shard: create %s", path)
	}

	buf := bufio.NewWriterSize(f, 1<<20)
	cw := csv.NewWriter(buf)
	if err := cw.Write(Header); err != nil {
		_ = f.Close()
		return nil, eris.Wrapf(err, "shard: write header to %s", path)
	}

	sf := &shardFile{idx: s, f: f, buf: buf, csv: cw}
	w.open[s] = sf
	zap.L().Debug("opened shard", zap.Int("shard", s), zap.String("path", path))
	return sf, nil
}

func (w *Writer) closeShard(sf *shardFile) error {
	delete(w.open, sf.idx)

	sf.csv.Flush()
	if err := sf.csv.Error(); err != nil {
		_ = sf.f.Close()
		return eris.Wrapf(err, "shard: flush shard %d", sf.idx)
	}
	if err := sf.buf.Flush(); err != nil {
		_ = sf.f.Close()
		return eris.Wrapf(err, "shard: flush shard %d", sf.idx)
	}
	if err := sf.f.Close(); err != nil {
		return eris.Wrapf(err, "shard: close shard %d", sf.idx)
	}

	zap.L().Info("shard complete", zap.Int("shard", sf.idx), zap.Int64("rows", sf.rows))
	if w.onComplete != nil {
		if err := w.onComplete(sf.idx, sf.rows); err != nil {
			return eris.Wrapf(err, "shard: completion hook for shard %d", sf.idx)
		}
	}
	return nil
}

// formatCoord renders a coordinate with the shortest decimal representation
// that round-trips, matching the float formatting of the reference output.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
