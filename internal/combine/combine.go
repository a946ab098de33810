// Package combine joins externally sourced direction claims against the
// calculated direction for the same pair of regions, producing a
// side-by-side comparison table. No reconciliation or scoring happens here.
package combine

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/atlasgrid/geodir/internal/csvio"
	"github.com/atlasgrid/geodir/internal/direction"
	"github.com/atlasgrid/geodir/internal/region"
)

// nullMarkers are the values the wiki export uses for absent relations.
var nullMarkers = map[string]bool{
	"":     true,
	"Null": true,
	"Wikidata|getValue|P1082|FETCH_WIKIDATA": true,
}

// relationColumn pairs a wiki relation column with its sector label. The
// slice order fixes the per-row claim order so output is reproducible.
type relationColumn struct {
	col string
	dir direction.Label
}

var relationColumns = []relationColumn{
	{"relation_nearE", direction.East},
	{"relation_nearN", direction.North},
	{"relation_nearNe", direction.NorthEast},
	{"relation_nearNw", direction.NorthWest},
	{"relation_nearS", direction.South},
	{"relation_nearSe", direction.SouthEast},
	{"relation_nearSw", direction.SouthWest},
	{"relation_nearW", direction.West},
}

// nameColumn is the wiki column holding the source place name.
const nameColumn = "nameID"

// ComparisonRow is one joined claim: the wiki label next to the calculated
// label for the same resolved pair.
type ComparisonRow struct {
	Place1        string  `csv:"place1"`
	Place1Lat     float64 `csv:"place1_latitude"`
	Place1Lon     float64 `csv:"place1_longitude"`
	Place2        string  `csv:"place2"`
	Place2Lat     float64 `csv:"place2_latitude"`
	Place2Lon     float64 `csv:"place2_longitude"`
	AlgoDirection string  `csv:"algo_direction"`
	WikiDirection string  `csv:"wiki_direction"`
}

// Stats counts join outcomes. Unresolvable names are dropped, not errors.
type Stats struct {
	Rows            int
	DroppedSource   int // source name did not resolve to a region
	DroppedTarget   int // target name did not resolve to a region
	DroppedSelfPair int // both names resolved to the same region
}

var folder = cases.Fold()

// normalizeName canonicalizes a place name for lookup: NFC normalization,
// case folding, surrounding whitespace removed.
func normalizeName(s string) string {
	return folder.String(norm.NFC.String(strings.TrimSpace(s)))
}

// Resolver maps external place names to regions via the name-mapping table.
type Resolver struct {
	mapping map[string]string // normalized external name → region name
	regions map[string]region.Region
}

// NewResolver indexes the region table by normalized name. Duplicate names
// keep the first occurrence, consistent with input-order disambiguation.
func NewResolver(regions []region.Region, mapping map[string]string) *Resolver {
	byName := make(map[string]region.Region, len(regions))
	for _, r := range regions {
		key := normalizeName(r.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = r
		}
	}

	normalized := make(map[string]string, len(mapping))
	for ext, name := range mapping {
		normalized[normalizeName(ext)] = name
	}

	return &Resolver{mapping: normalized, regions: byName}
}

// Resolve translates an external place name to its region, via the mapping
// table first and then the region index.
func (r *Resolver) Resolve(external string) (region.Region, bool) {
	name, ok := r.mapping[normalizeName(external)]
	if !ok {
		return region.Region{}, false
	}
	reg, ok := r.regions[normalizeName(name)]
	return reg, ok
}

// LoadNameMapping reads the headerless ';'-separated mapping table of
// external_name;region_name rows. Malformed rows are skipped.
func LoadNameMapping(ctx context.Context, path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "combine: open name mapping %s", path)
	}
	defer func() { _ = f.Close() }()

	rowCh, errCh := csvio.Stream(ctx, f, csvio.Options{Delimiter: ';', TrimSpace: true})
	rows, err := csvio.Drain(rowCh, errCh)
	if err != nil {
		return nil, eris.Wrapf(err, "combine: read name mapping %s", path)
	}

	mapping := make(map[string]string, len(rows))
	for _, row := range rows {
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		mapping[row[0]] = row[1]
	}
	return mapping, nil
}

// Run streams the wiki table and emits one ComparisonRow per resolvable
// direction claim. Rows whose endpoints do not resolve are dropped and
// counted; a claim whose endpoints collapse onto the same region is dropped
// too, since a self-pair has no defined direction.
func Run(ctx context.Context, wikiPath string, resolver *Resolver, emit func(ComparisonRow) error) (Stats, error) {
	f, err := os.Open(wikiPath)
	if err != nil {
		return Stats{}, eris.Wrapf(err, "combine: open wiki table %s", wikiPath)
	}
	defer func() { _ = f.Close() }()

	headerCh := make(chan []string, 1)
	rowCh, errCh := csvio.Stream(ctx, f, csvio.Options{
		Delimiter: '\t',
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	// The header is buffered before the stream closes, so when errCh wins
	// the race a second non-blocking read still picks the header up.
	var header []string
	select {
	case header = <-headerCh:
	case err := <-errCh:
		if err != nil {
			return Stats{}, err
		}
		select {
		case header = <-headerCh:
		default:
			return Stats{}, eris.Errorf("combine: wiki table %s is empty", wikiPath)
		}
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	nameIdx, ok := colIdx[nameColumn]
	if !ok {
		return Stats{}, eris.Errorf("combine: wiki table missing %q column", nameColumn)
	}

	log := zap.L().With(zap.String("component", "combine"))
	var stats Stats

	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	for row := range rowCh {
		srcName := cell(row, nameIdx)
		if nullMarkers[srcName] {
			continue
		}
		src, ok := resolver.Resolve(srcName)
		if !ok {
			stats.DroppedSource++
			log.Debug("unresolvable source name", zap.String("name", srcName))
			continue
		}

		for _, rc := range relationColumns {
			idx, ok := colIdx[rc.col]
			if !ok {
				continue
			}
			tgtName := cell(row, idx)
			if nullMarkers[tgtName] {
				continue
			}
			tgt, ok := resolver.Resolve(tgtName)
			if !ok {
				stats.DroppedTarget++
				log.Debug("unresolvable target name", zap.String("name", tgtName))
				continue
			}
			if src.Lat == tgt.Lat && src.Lon == tgt.Lon {
				stats.DroppedSelfPair++
				continue
			}

			algo, err := direction.Classify(src.Lat, src.Lon, tgt.Lat, tgt.Lon)
			if err != nil {
				return stats, eris.Wrap(err, "combine: classify")
			}

			out := ComparisonRow{
				Place1:        src.Name,
				Place1Lat:     src.Lat,
				Place1Lon:     src.Lon,
				Place2:        tgt.Name,
				Place2Lat:     tgt.Lat,
				Place2Lon:     tgt.Lon,
				AlgoDirection: string(algo),
				WikiDirection: string(rc.dir),
			}
			if err := emit(out); err != nil {
				return stats, eris.Wrap(err, "combine: emit row")
			}
			stats.Rows++
		}
	}
	if err := <-errCh; err != nil {
		return stats, err
	}

	log.Info("combine complete",
		zap.Int("rows", stats.Rows),
		zap.Int("dropped_source", stats.DroppedSource),
		zap.Int("dropped_target", stats.DroppedTarget),
		zap.Int("dropped_self_pair", stats.DroppedSelfPair),
	)
	return stats, nil
}
