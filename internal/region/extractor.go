package region

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// Fields names the attribute columns carrying region identity. Zero values
// fall back to the SAL 2021 layout.
type Fields struct {
	Code  string
	Name  string
	State string
}

// DefaultFields matches the ABS SAL 2021 shapefile attribute table.
var DefaultFields = Fields{Code: "SAL_CODE21", Name: "SAL_NAME21", State: "STE_CODE21"}

func (f Fields) withDefaults() Fields {
	if f.Code == "" {
		f.Code = DefaultFields.Code
	}
	if f.Name == "" {
		f.Name = DefaultFields.Name
	}
	if f.State == "" {
		f.State = DefaultFields.State
	}
	return f
}

// DropStats counts records excluded during extraction. Drops are not
// errors; the caller decides whether the surviving count is usable.
type DropStats struct {
	NullGeometry  int
	ZeroArea      int
	OutOfEnvelope int
}

// Total returns the number of dropped records.
func (s DropStats) Total() int {
	return s.NullGeometry + s.ZeroArea + s.OutOfEnvelope
}

// LoadShapefile reads a polygon shapefile and returns one Region per valid
// record, in file order. Records with missing or degenerate geometry, or a
// centroid outside the continental envelope, are dropped and counted.
// Duplicate names are retained as distinct regions.
func LoadShapefile(path string, fields Fields) ([]Region, DropStats, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, DropStats{}, eris.Wrapf(err, "region: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields = fields.withDefaults()

	// Build field name → index map.
	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	attr := func(name string) string {
		idx, ok := fieldIdx[strings.ToLower(name)]
		if !ok {
			return ""
		}
		val := strings.TrimRight(reader.Attribute(idx), "\x00")
		return strings.TrimSpace(val)
	}

	log := zap.L().With(zap.String("component", "region.extractor"))

	var regions []Region
	var drops DropStats

	for reader.Next() {
		num, shape := reader.Shape()

		code := attr(fields.Code)
		name := attr(fields.Name)
		state := attr(fields.State)

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			drops.NullGeometry++
			log.Debug("dropping record with missing geometry", zap.Int("record", num), zap.String("name", name))
			continue
		}

		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			drops.NullGeometry++
			log.Debug("dropping record with empty geometry", zap.Int("record", num), zap.String("name", name))
			continue
		}
		if mp.Area() == 0 {
			drops.ZeroArea++
			log.Debug("dropping record with zero-area geometry", zap.Int("record", num), zap.String("name", name))
			continue
		}

		centroid, err := xy.Centroid(mp)
		if err != nil {
			drops.ZeroArea++
			log.Debug("dropping record with degenerate centroid", zap.Int("record", num), zap.String("name", name), zap.Error(err))
			continue
		}

		lon, lat := centroid[0], centroid[1]
		if !InEnvelope(lat, lon) {
			drops.OutOfEnvelope++
			log.Debug("dropping record with out-of-envelope centroid",
				zap.Int("record", num),
				zap.String("name", name),
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
			)
			continue
		}

		regions = append(regions, Region{
			Code:      code,
			Name:      name,
			StateCode: state,
			Lat:       lat,
			Lon:       lon,
		})
	}

	if drops.Total() > 0 {
		log.Warn("dropped invalid shapefile records",
			zap.Int("null_geometry", drops.NullGeometry),
			zap.Int("zero_area", drops.ZeroArea),
			zap.Int("out_of_envelope", drops.OutOfEnvelope),
		)
	}

	log.Info("extracted regions", zap.Int("regions", len(regions)), zap.Int("dropped", drops.Total()))
	return regions, drops, nil
}
