package terrain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wiless/radarperf/rf"
)

// ElevationProvider is the terrain-elevation collaborator (a DEM lookup).
type ElevationProvider interface {
	ElevationAt(lat, lon float64) (float64, error)
}

// ElevationFunc adapts a plain function to ElevationProvider.
type ElevationFunc func(lat, lon float64) (float64, error)

func (f ElevationFunc) ElevationAt(lat, lon float64) (float64, error) {
	return f(lat, lon)
}

// Flat is an ElevationProvider returning the same elevation everywhere.
type Flat float64

func (f Flat) ElevationAt(lat, lon float64) (float64, error) {
	return float64(f), nil
}

// BuildProfile samples n points (n >= 2) between two geodetic points using
// the provider. Cancellation is checked between samples.
func BuildProfile(ctx context.Context, provider ElevationProvider, from, to Point, n int) (*Profile, error) {
	if provider == nil {
		return nil, rf.InvalidParameter("nil elevation provider")
	}
	if !from.Geodetic || !to.Geodetic {
		return nil, rf.InvalidGeometry("terrain profiles are built between geodetic points")
	}
	if n < 2 {
		return nil, rf.InvalidParameter("profile needs at least 2 samples, got %d", n)
	}
	total, err := GroundRangeM(from, to)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, rf.InvalidGeometry("zero baseline between profile end points")
	}
	distances := make([]float64, n)
	elevations := make([]float64, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := float64(i) / float64(n-1)
		pt := interpolate(from, to, f)
		h, err := provider.ElevationAt(pt.Lat, pt.Lon)
		if err != nil {
			return nil, errors.Wrapf(err, "elevation at (%.6f, %.6f)", pt.Lat, pt.Lon)
		}
		distances[i] = total * f
		elevations[i] = h
	}
	return NewProfile(distances, elevations)
}
