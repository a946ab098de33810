// Package pairwise enumerates every ordered pair of regions in fixed-size
// row-blocks and classifies the direction of each pair. The full N×N cross
// product is never materialized; peak memory is bounded by the block size.
package pairwise

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasgrid/geodir/internal/direction"
	"github.com/atlasgrid/geodir/internal/region"
)

// DefaultBlockSize is the number of source regions per row-block. With
// N ≈ 15,000 regions a block of 64 rows keeps the working buffer under a
// million pairs.
const DefaultBlockSize = 64

// Pair is one classified ordered pair, referencing regions by table index.
// Records are ephemeral: they are valid only for the duration of the block
// callback that delivers them.
type Pair struct {
	I, J int32
	Dir  direction.Label
}

// BlockFunc receives one row-block of classified pairs. start is the linear
// index of the first pair in the block; pairs are in emission order. The
// slice is reused between blocks and must not be retained.
type BlockFunc func(start int64, pairs []Pair) error

// Range is a half-open interval [Lo, Hi) of linear pair indices.
type Range struct {
	Lo, Hi int64
}

// Engine drives blocked pairwise direction classification over an immutable
// region table. The table index is the sole pair ordering; the engine never
// re-sorts its input.
type Engine struct {
	regions   []region.Region
	blockSize int
}

// NewEngine validates the region table and returns an engine. A NaN
// centroid is an upstream invariant break and is rejected outright rather
// than allowed to corrupt the pair count downstream.
func NewEngine(regions []region.Region, blockSize int) (*Engine, error) {
	if len(regions) < 2 {
		return nil, eris.Errorf("pairwise: need at least 2 regions, have %d", len(regions))
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	for i, r := range regions {
		if math.IsNaN(r.Lat) || math.IsNaN(r.Lon) {
			return nil, eris.Errorf("pairwise: region %d (%s) has NaN centroid", i, r.Name)
		}
	}
	return &Engine{regions: regions, blockSize: blockSize}, nil
}

// Regions returns the engine's region table.
func (e *Engine) Regions() []region.Region { return e.regions }

// TotalPairs returns the exact number of pairs the engine will emit.
func (e *Engine) TotalPairs() int64 { return TotalPairs(len(e.regions)) }

// Run processes all row-blocks in increasing order, so emission order is
// exactly the linear pair index. It is the sequential reference path.
func (e *Engine) Run(ctx context.Context, emit BlockFunc) error {
	n := len(e.regions)
	buf := make([]Pair, 0, e.blockSize*(n-1))

	log := zap.L().With(zap.String("component", "pairwise.engine"))
	log.Info("starting pairwise pass",
		zap.Int("regions", n),
		zap.Int("block_size", e.blockSize),
		zap.Int64("total_pairs", e.TotalPairs()),
	)

	for r0 := 0; r0 < n; r0 += e.blockSize {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pairwise: cancelled")
		}

		r1 := r0 + e.blockSize
		if r1 > n {
			r1 = n
		}

		buf = buf[:0]
		for i := r0; i < r1; i++ {
			src := e.regions[i]
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				dst := e.regions[j]
				b := direction.Bearing(src.Lat, src.Lon, dst.Lat, dst.Lon)
				buf = append(buf, Pair{I: int32(i), J: int32(j), Dir: direction.FromBearing(b)})
			}
		}

		start := int64(r0) * int64(n-1)
		if err := emit(start, buf); err != nil {
			return eris.Wrapf(err, "pairwise: emit block at row %d", r0)
		}
	}

	return nil
}

// RunRange classifies the pairs with linear indices in r, in index order,
// delivering them in blocks of at most blockSize·(n−1) pairs. Ranges are
// independent, so disjoint ranges may run concurrently.
func (e *Engine) RunRange(ctx context.Context, r Range, emit BlockFunc) error {
	n := len(e.regions)
	if r.Lo < 0 || r.Hi > e.TotalPairs() || r.Lo > r.Hi {
		return eris.Errorf("pairwise: range [%d, %d) out of bounds", r.Lo, r.Hi)
	}

	blockCap := int64(e.blockSize) * int64(n-1)
	buf := make([]Pair, 0, blockCap)

	for lo := r.Lo; lo < r.Hi; lo += blockCap {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pairwise: cancelled")
		}

		hi := lo + blockCap
		if hi > r.Hi {
			hi = r.Hi
		}

		buf = buf[:0]
		for p := lo; p < hi; p++ {
			i, j := Unrank(p, n)
			src, dst := e.regions[i], e.regions[j]
			b := direction.Bearing(src.Lat, src.Lon, dst.Lat, dst.Lon)
			buf = append(buf, Pair{I: int32(i), J: int32(j), Dir: direction.FromBearing(b)})
		}

		if err := emit(lo, buf); err != nil {
			return eris.Wrapf(err, "pairwise: emit block at index %d", lo)
		}
	}

	return nil
}
