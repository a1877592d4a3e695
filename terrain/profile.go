package terrain

import (
	"sort"

	"github.com/wiless/radarperf/rf"
	"github.com/wiless/vlib"
)

// Profile is an ordered, immutable sequence of (distance, elevation) samples
// in metres measured from the transmitter.
type Profile struct {
	distances  vlib.VectorF
	elevations vlib.VectorF
}

// NewProfile copies the samples into a Profile. Distances must be
// non-decreasing and both slices must have the same, non-zero length.
func NewProfile(distances, elevations []float64) (*Profile, error) {
	if len(distances) == 0 {
		return nil, rf.InvalidParameter("terrain profile needs at least one sample")
	}
	if len(distances) != len(elevations) {
		return nil, rf.InvalidParameter("terrain profile has %d distances but %d elevations", len(distances), len(elevations))
	}
	for i := range distances {
		if err := rf.Finite("profile distance", distances[i]); err != nil {
			return nil, err
		}
		if err := rf.Finite("profile elevation", elevations[i]); err != nil {
			return nil, err
		}
		if distances[i] < 0 {
			return nil, rf.InvalidParameter("profile distance[%d] = %v is negative", i, distances[i])
		}
		if i > 0 && distances[i] < distances[i-1] {
			return nil, rf.InvalidParameter("profile distances must be non-decreasing at index %d", i)
		}
	}
	p := &Profile{
		distances:  append(vlib.VectorF(nil), distances...),
		elevations: append(vlib.VectorF(nil), elevations...),
	}
	return p, nil
}

// Len returns the number of samples.
func (p *Profile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.distances)
}

// Sample returns the i-th (distance, elevation) pair.
func (p *Profile) Sample(i int) (distM, elevM float64) {
	return p.distances[i], p.elevations[i]
}

// TotalDistanceM is the distance of the last sample.
func (p *Profile) TotalDistanceM() float64 {
	return p.distances[len(p.distances)-1]
}

// Distances returns a copy of the distance axis.
func (p *Profile) Distances() []float64 {
	return append([]float64(nil), p.distances...)
}

// Elevations returns a copy of the elevation samples.
func (p *Profile) Elevations() []float64 {
	return append([]float64(nil), p.elevations...)
}

// ElevationAt linearly interpolates the elevation at distance d. Queries
// outside the sampled span return the nearest end sample.
func (p *Profile) ElevationAt(d float64) float64 {
	n := len(p.distances)
	idx := sort.SearchFloat64s(p.distances, d)
	switch {
	case idx == 0:
		return p.elevations[0]
	case idx == n:
		return p.elevations[n-1]
	}
	x0, x1 := p.distances[idx-1], p.distances[idx]
	y0, y1 := p.elevations[idx-1], p.elevations[idx]
	if x1 == x0 {
		return y1
	}
	return y0 + (y1-y0)*(d-x0)/(x1-x0)
}

// MaxObstacle returns the position and height of the highest sample. Ties
// resolve to the sample closest to the transmitter.
func (p *Profile) MaxObstacle() (distM, elevM float64) {
	best := 0
	for i := 1; i < len(p.elevations); i++ {
		if p.elevations[i] > p.elevations[best] {
			best = i
		}
	}
	return p.distances[best], p.elevations[best]
}

// Truncate returns the part of the profile up to distance d, ending in an
// interpolated sample at d. A d beyond the last sample is InvalidGeometry.
func (p *Profile) Truncate(d float64) (*Profile, error) {
	if d < 0 || d > p.TotalDistanceM() {
		return nil, rf.InvalidGeometry("truncation point %v m outside profile of %v m", d, p.TotalDistanceM())
	}
	idx := sort.SearchFloat64s(p.distances, d)
	dist := append(vlib.VectorF(nil), p.distances[:idx]...)
	elev := append(vlib.VectorF(nil), p.elevations[:idx]...)
	return &Profile{
		distances:  append(dist, d),
		elevations: append(elev, p.ElevationAt(d)),
	}, nil
}
