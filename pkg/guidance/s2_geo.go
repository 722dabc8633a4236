package guidance

import (
	"pathsync/pkg/datastructure"

	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371008.8

func toS2(c datastructure.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

// Midpoint is the point halfway along the great-circle segment a -> b.
func Midpoint(a, b datastructure.Coordinate) datastructure.Coordinate {
	mid := s2.LatLngFromPoint(s2.Interpolate(0.5, toS2(a), toS2(b)))
	return datastructure.NewCoordinate(mid.Lat.Degrees(), mid.Lng.Degrees())
}

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b datastructure.Coordinate) float64 {
	return float64(toS2(a).Distance(toS2(b))) * earthRadiusMeters
}
