package guidance

import (
	"math"
)

func degToRad(d float64) float64 {
	return d * math.Pi / 180.0
}

func radToDeg(r float64) float64 {
	return 180.0 * r / math.Pi
}

/*
BearingTo. initial bearing in degrees (-180, 180] of the great-circle path p1 -> p2.
https://www.movable-type.co.uk/scripts/latlong.html
*/
func BearingTo(p1Lat, p1Lon, p2Lat, p2Lon float64) float64 {
	dLon := degToRad(p2Lon - p1Lon)

	lat1 := degToRad(p1Lat)
	lat2 := degToRad(p2Lat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return radToDeg(math.Atan2(y, x))
}

// azimuth maps a bearing to [0, 360).
func azimuth(bearing float64) float64 {
	return math.Mod(bearing+360, 360)
}

func azimuthToCompass(azimuth float64) string {
	switch {
	case azimuth < 22.5:
		return "north"
	case azimuth < 67.5:
		return "northeast"
	case azimuth < 112.5:
		return "east"
	case azimuth < 157.5:
		return "southeast"
	case azimuth < 202.5:
		return "south"
	case azimuth < 247.5:
		return "southwest"
	case azimuth < 292.5:
		return "west"
	case azimuth < 337.5:
		return "northwest"
	default:
		return "north"
	}
}

func calcOrientation(lat1, lon1, lat2, lon2 float64) float64 {
	return degToRad(BearingTo(lat1, lon1, lat2, lon2))
}

// alignOrientation shifts orientation by 2π so that its difference to baseOrientation lies in [-π, π].
func alignOrientation(baseOrientation, orientation float64) float64 {
	if baseOrientation >= 0 {
		if orientation < -math.Pi+baseOrientation {
			return orientation + 2*math.Pi
		}
		return orientation
	}
	if orientation > math.Pi+baseOrientation {
		return orientation - 2*math.Pi
	}
	return orientation
}

// turnSign classifies the change of heading when leaving (lat, lon) in orientation after arriving
// with prevOrientation. Bearings grow clockwise, so a positive delta is a right turn.
func turnSign(prevOrientation, orientation float64) int {
	delta := alignOrientation(prevOrientation, orientation) - prevOrientation
	deltaDegree := math.Abs(radToDeg(delta))
	switch {
	case deltaDegree < 12:
		return CONTINUE_ON_STREET
	case deltaDegree < 40:
		if delta < 0 {
			return TURN_SLIGHT_LEFT
		}
		return TURN_SLIGHT_RIGHT
	case deltaDegree < 105:
		if delta < 0 {
			return TURN_LEFT
		}
		return TURN_RIGHT
	case deltaDegree < 170:
		if delta < 0 {
			return TURN_SHARP_LEFT
		}
		return TURN_SHARP_RIGHT
	default:
		return U_TURN_UNKNOWN
	}
}
