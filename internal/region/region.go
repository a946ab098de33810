// Package region extracts named regions with representative centroids from
// a polygon shapefile.
package region

// Continental sanity envelope for centroids. Anything outside is treated as
// a degenerate geometry, not a hard geographic rule.
const (
	MinLat = -45.0
	MaxLat = -9.0
	MinLon = 110.0
	MaxLon = 155.0
)

// Region is one named geographic area reduced to a single centroid
// coordinate. Records are created once per run and never mutated.
type Region struct {
	Code      string
	Name      string
	StateCode string
	Lat       float64
	Lon       float64
}

// InEnvelope reports whether a coordinate falls inside the continental
// envelope. NaN coordinates fail every comparison and are rejected.
func InEnvelope(lat, lon float64) bool {
	return lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon
}
