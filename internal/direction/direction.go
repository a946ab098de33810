// Package direction classifies the compass relationship between two
// coordinate points into one of eight 45° sectors.
package direction

import (
	"math"

	"github.com/rotisserie/eris"
)

// Label is one of the eight compass sector codes.
type Label string

// The eight sector labels, clockwise from north.
const (
	North     Label = "N"
	NorthEast Label = "NE"
	East      Label = "E"
	SouthEast Label = "SE"
	South     Label = "S"
	SouthWest Label = "SW"
	West      Label = "W"
	NorthWest Label = "NW"
)

// Labels lists all sector labels in clockwise order starting at north.
var Labels = []Label{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// sectorWidth is the angular width of one compass sector in degrees.
const sectorWidth = 45.0

// Bearing returns the planar bearing from point 1 to point 2 in degrees,
// normalized to [0, 360). 0 is north, 90 is east. No spherical correction
// is applied; the inputs are assumed to lie within a continental extent.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	deg := math.Atan2(lon2-lon1, lat2-lat1) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// FromBearing maps a bearing in [0, 360) to its sector label. Sectors are
// half-open: the lower edge belongs to the sector, the upper edge to the
// next one, so the eight sectors tile the circle exactly. The north sector
// spans [337.5, 360) ∪ [0, 22.5).
func FromBearing(deg float64) Label {
	// Rotate by half a sector so each sector becomes a plain half-open
	// interval, then index.
	idx := int(math.Mod(deg+sectorWidth/2, 360) / sectorWidth)
	return Labels[idx]
}

// Classify returns the sector label for the direction from point 1 to
// point 2. Identical coordinates have no defined direction and are treated
// as a precondition violation: self-pairs must be excluded upstream.
func Classify(lat1, lon1, lat2, lon2 float64) (Label, error) {
	if lat1 == lat2 && lon1 == lon2 {
		return "", eris.Errorf("direction: identical coordinates (%f, %f)", lat1, lon1)
	}
	return FromBearing(Bearing(lat1, lon1, lat2, lon2)), nil
}
