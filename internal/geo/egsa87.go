// Package geo projects geographic WGS84 coordinates into the Greek EGSA87
// planar reference system used by the portal's location panels.
package geo

import (
	"math"
	"strconv"

	"github.com/wroge/wgs84"
)

// EGSA87 (Greek Grid, EPSG:2100) is a transverse Mercator projection on the
// GGRS87 datum: GRS80 spheroid and a three-parameter Helmert shift from
// WGS84, central meridian 24°E, scale 0.9996, false easting 500000.
var egsa87 = wgs84.Helmert(6378137, 298.257222101, -199.87, 74.79, 246.62, 0, 0, 0, 0).
	TransverseMercator(24, 0, 0.9996, 500000, 0)

var toEGSA87 = wgs84.LonLat().To(egsa87)

// ToEGSA87 projects a geographic WGS84 coordinate (degrees) to planar
// EGSA87 east/north in meters.
func ToEGSA87(lng, lat float64) (x, y float64) {
	x, y, _ = toEGSA87(lng, lat, 0)
	return x, y
}

// FormatCoordinate renders a projected coordinate rounded half-up to two
// decimal places, dropping the fractional part entirely when the rounded
// value is integral: 500000.004 -> "500000", 500000.3 -> "500000.3".
func FormatCoordinate(v float64) string {
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		// math.Round(-0.001*100)/100 is negative zero, which FormatFloat
		// would render as "-0".
		rounded = 0
	}
	if rounded == math.Trunc(rounded) {
		return strconv.FormatFloat(rounded, 'f', 0, 64)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
