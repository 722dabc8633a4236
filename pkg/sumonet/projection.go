package sumonet

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

var ErrUnprojectable = errors.New("coordinate cannot be projected into the network")

// UTM is defined up to 84° of latitude.
const maxUTMLat = 84.0

// Projection converts between geographic coordinates and the network's x/y plane the way SUMO
// does it: x/y = proj(lon, lat) + netOffset.
type Projection struct {
	OffsetX float64
	OffsetY float64
	Zone    int
	South   bool
	// Identity is set for networks written without a projection ("!"), whose x/y are lon/lat.
	Identity bool

	forward wgs84.Func
	inverse wgs84.Func
}

var zoneRe = regexp.MustCompile(`\+zone=(\d+)`)

func parseProjection(netOffset, projParameter string) (Projection, error) {
	p := Projection{}
	if netOffset != "" {
		parts := strings.Split(netOffset, ",")
		if len(parts) != 2 {
			return p, fmt.Errorf("invalid netOffset %q", netOffset)
		}
		var err error
		if p.OffsetX, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
			return p, fmt.Errorf("invalid netOffset %q: %w", netOffset, err)
		}
		if p.OffsetY, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
			return p, fmt.Errorf("invalid netOffset %q: %w", netOffset, err)
		}
	}

	proj := strings.TrimSpace(projParameter)
	if proj == "" || proj == "!" || proj == "-" {
		p.Identity = true
		return p, nil
	}
	if !strings.Contains(proj, "+proj=utm") {
		return p, fmt.Errorf("unsupported projection %q", proj)
	}
	m := zoneRe.FindStringSubmatch(proj)
	if m == nil {
		return p, fmt.Errorf("projection %q has no utm zone", proj)
	}
	zone, _ := strconv.Atoi(m[1])
	if zone < 1 || zone > 60 {
		return p, fmt.Errorf("projection %q: utm zone out of range", proj)
	}
	p.Zone = zone
	p.South = strings.Contains(proj, "+south")
	utm := wgs84.UTM(float64(zone), !p.South)
	p.forward = wgs84.LonLat().To(utm)
	p.inverse = utm.To(wgs84.LonLat())
	return p, nil
}

// LatLonToXY projects a geographic coordinate into network coordinates.
func (p Projection) LatLonToXY(lat, lon float64) (float64, float64, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) ||
		lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: (%v, %v)", ErrUnprojectable, lat, lon)
	}
	if p.Identity {
		return lon + p.OffsetX, lat + p.OffsetY, nil
	}
	if math.Abs(lat) > maxUTMLat {
		return 0, 0, fmt.Errorf("%w: latitude %v outside utm", ErrUnprojectable, lat)
	}

	x, y, _ := p.forward(lon, lat, 0)
	return x + p.OffsetX, y + p.OffsetY, nil
}

// XYToLatLon converts network coordinates back to latitude/longitude.
func (p Projection) XYToLatLon(x, y float64) (float64, float64) {
	x -= p.OffsetX
	y -= p.OffsetY
	if p.Identity {
		return y, x
	}

	lon, lat, _ := p.inverse(x, y, 0)
	return lat, lon
}
