// Package terrain describes link geometry: end points, and the sampled
// terrain profile between them used for line-of-sight and diffraction.
package terrain

import (
	"math"

	"github.com/wiless/radarperf/rf"
	"github.com/wiless/vlib"
)

// Point is one end of a link. It is either a local cartesian location in
// metres or a geodetic position (degrees, metres above sea level).
type Point struct {
	Location vlib.Location3D `json:"location"`
	Lat      float64         `json:"lat"`
	Lon      float64         `json:"lon"`
	AltM     float64         `json:"alt_m"`
	Geodetic bool            `json:"geodetic"`
}

// Cartesian returns a Point at the local position (x,y,z) metres.
func Cartesian(x, y, z float64) Point {
	return Point{Location: vlib.Location3D{X: x, Y: y, Z: z}}
}

// Geodetic returns a Point at lat/lon degrees and altitude altM metres.
func Geodetic(lat, lon, altM float64) Point {
	return Point{Lat: lat, Lon: lon, AltM: altM, Geodetic: true}
}

// Height returns the point's height in metres.
func (p Point) Height() float64 {
	if p.Geodetic {
		return p.AltM
	}
	return p.Location.Z
}

// GroundRangeM returns the horizontal distance in metres between p and q.
// Geodetic points use the haversine great circle distance.
func GroundRangeM(p, q Point) (float64, error) {
	if p.Geodetic != q.Geodetic {
		return 0, rf.InvalidGeometry("cannot mix geodetic and cartesian points")
	}
	if !p.Geodetic {
		return p.Location.Distance2DFrom(q.Location), nil
	}
	lat1, lon1 := rf.Deg2Rad(p.Lat), rf.Deg2Rad(p.Lon)
	lat2, lon2 := rf.Deg2Rad(q.Lat), rf.Deg2Rad(q.Lon)
	dlat := lat2 - lat1
	dlon := lon2 - lon1
	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return rf.EarthRadiusM * c, nil
}

// DistanceM returns the straight line (slant) distance in metres.
func DistanceM(p, q Point) (float64, error) {
	if !p.Geodetic && !q.Geodetic {
		return p.Location.DistanceFrom(q.Location), nil
	}
	ground, err := GroundRangeM(p, q)
	if err != nil {
		return 0, err
	}
	dh := q.Height() - p.Height()
	return math.Sqrt(ground*ground + dh*dh), nil
}

// Baseline is DistanceM that additionally rejects a zero baseline.
func Baseline(p, q Point) (float64, error) {
	d, err := DistanceM(p, q)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, rf.InvalidGeometry("zero baseline between %v and %v", p, q)
	}
	return d, nil
}

// BearingDeg returns the initial bearing from p to q in [0,360) degrees.
func BearingDeg(p, q Point) (float64, error) {
	if p.Geodetic != q.Geodetic {
		return 0, rf.InvalidGeometry("cannot mix geodetic and cartesian points")
	}
	if !p.Geodetic {
		dx := q.Location.X - p.Location.X
		dy := q.Location.Y - p.Location.Y
		return math.Mod(rf.Rad2Deg(math.Atan2(dx, dy))+360, 360), nil
	}
	lat1, lon1 := rf.Deg2Rad(p.Lat), rf.Deg2Rad(p.Lon)
	lat2, lon2 := rf.Deg2Rad(q.Lat), rf.Deg2Rad(q.Lon)
	dlon := lon2 - lon1
	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return math.Mod(rf.Rad2Deg(math.Atan2(y, x))+360, 360), nil
}

// ElevationAngleDeg returns the elevation of q seen from p, in degrees.
func ElevationAngleDeg(p, q Point) (float64, error) {
	ground, err := GroundRangeM(p, q)
	if err != nil {
		return 0, err
	}
	dh := q.Height() - p.Height()
	if ground == 0 && dh == 0 {
		return 0, rf.InvalidGeometry("zero baseline")
	}
	return rf.Rad2Deg(math.Atan2(dh, ground)), nil
}

// interpolate returns the point at fraction f along the straight p->q segment.
func interpolate(p, q Point, f float64) Point {
	if p.Geodetic {
		return Geodetic(p.Lat+(q.Lat-p.Lat)*f, p.Lon+(q.Lon-p.Lon)*f, p.AltM+(q.AltM-p.AltM)*f)
	}
	return Cartesian(
		p.Location.X+(q.Location.X-p.Location.X)*f,
		p.Location.Y+(q.Location.Y-p.Location.Y)*f,
		p.Location.Z+(q.Location.Z-p.Location.Z)*f,
	)
}
