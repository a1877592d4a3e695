package antenna

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Component selects which field power a slice reports.
type Component int

const (
	Total Component = iota
	ThetaComponent
	PhiComponent
)

var Components = [...]string{"Total", "Theta", "Phi"}

func (c Component) String() string {
	if int(c) < 0 || int(c) >= len(Components) {
		return "Unknown-Component"
	}
	return Components[c]
}

// Plane selects the principal cut. Elevation holds phi fixed and varies
// theta; Azimuth holds theta fixed and varies phi.
type Plane int

const (
	Elevation Plane = iota
	Azimuth
)

var Planes = [...]string{"Elevation", "Azimuth"}

func (p Plane) String() string {
	if int(p) < 0 || int(p) >= len(Planes) {
		return "Unknown-Plane"
	}
	return Planes[p]
}

// sidelobeExclusionDeg is the half-width of the window around the peak that
// is treated as main lobe by SidelobeLevel.
const sidelobeExclusionDeg = 20.0

// PatternSlice is a one-dimensional cut through a pattern in dB.
type PatternSlice struct {
	Plane     Plane     `json:"plane"`
	Component Component `json:"component"`
	// FixedDeg is the sampled angle actually used for the cut.
	FixedDeg float64   `json:"fixed_deg"`
	Angles   []float64 `json:"angles"`
	Values   []float64 `json:"values"`
	// Circular is set for azimuth cuts covering the full circle.
	Circular bool `json:"circular"`
}

// Slice extracts the nearest-sample cut at fixedDeg.
func (p *RadiationPattern) Slice(plane Plane, fixedDeg float64, c Component) PatternSlice {
	s := PatternSlice{Plane: plane, Component: c}
	if plane == Azimuth {
		i := p.nearestTheta(fixedDeg)
		s.FixedDeg = p.theta[i]
		s.Angles = p.Phi()
		s.Values = make([]float64, len(p.phi))
		for j := range p.phi {
			s.Values[j] = p.componentDb(c, i, j)
		}
		s.Circular = p.phiCircular()
		return s
	}
	j := p.nearestPhi(fixedDeg)
	s.FixedDeg = p.phi[j]
	s.Angles = p.Theta()
	s.Values = make([]float64, len(p.theta))
	for i := range p.theta {
		s.Values[i] = p.componentDb(c, i, j)
	}
	return s
}

func (p *RadiationPattern) componentDb(c Component, i, j int) float64 {
	switch c {
	case ThetaComponent:
		a := cmplx.Abs(p.eTheta[i][j])
		return 10 * math.Log10(a*a+powerFloor)
	case PhiComponent:
		a := cmplx.Abs(p.ePhi[i][j])
		return 10 * math.Log10(a*a+powerFloor)
	default:
		return p.gain[i][j]
	}
}

// Len is the number of samples in the cut.
func (s PatternSlice) Len() int { return len(s.Values) }

// Peak returns the angle and value of the largest sample. An empty slice
// yields NaNs.
func (s PatternSlice) Peak() (angleDeg, valueDb float64) {
	if len(s.Values) == 0 {
		return math.NaN(), math.NaN()
	}
	k := floats.MaxIdx(s.Values)
	return s.Angles[k], s.Values[k]
}

// step walks k by dir, wrapping on circular slices. The returned offset is
// the angle unwrapping (in degrees) to add to Angles[next].
func (s PatternSlice) step(k, dir int) (next int, offset float64, ok bool) {
	next = k + dir
	n := len(s.Values)
	switch {
	case next >= 0 && next < n:
		return next, 0, true
	case !s.Circular:
		return 0, 0, false
	case next < 0:
		return n - 1, -360, true
	default:
		return 0, 360, true
	}
}

// crossing walks away from the peak in direction dir and returns the
// linearly interpolated angle where the cut first drops below level.
func (s PatternSlice) crossing(peak int, dir int, level float64) (float64, bool) {
	k := peak
	angle := s.Angles[peak]
	for steps := 1; steps < len(s.Values); steps++ {
		next, offset, ok := s.step(k, dir)
		if !ok {
			return 0, false
		}
		nextAngle := s.Angles[next] + offset
		if dir > 0 && nextAngle < angle {
			nextAngle += 360
		}
		if dir < 0 && nextAngle > angle {
			nextAngle -= 360
		}
		v0, v1 := s.Values[k], s.Values[next]
		if v1 < level {
			if v0 == v1 {
				return nextAngle, true
			}
			f := (v0 - level) / (v0 - v1)
			return angle + f*(nextAngle-angle), true
		}
		k, angle = next, nextAngle
	}
	return 0, false
}

// Beamwidth is the angular span between the crossings of peak+levelDb
// nearest the peak on either side. It is 0 when either crossing is missing
// or levelDb is not negative.
func (s PatternSlice) Beamwidth(levelDb float64) float64 {
	if len(s.Values) < 2 || !(levelDb < 0) {
		return 0
	}
	peak := floats.MaxIdx(s.Values)
	level := s.Values[peak] + levelDb
	right, okR := s.crossing(peak, 1, level)
	left, okL := s.crossing(peak, -1, level)
	if !okR || !okL {
		return 0
	}
	return right - left
}

// SidelobeLevel is the largest value more than 20 degrees from the peak
// relative to the peak, or -Inf when no sample lies outside that window.
func (s PatternSlice) SidelobeLevel() float64 {
	if len(s.Values) == 0 {
		return math.Inf(-1)
	}
	peakAngle, peakValue := s.Peak()
	best := math.Inf(-1)
	for k, a := range s.Angles {
		d := math.Abs(a - peakAngle)
		if s.Circular {
			d = circularDistance(a, peakAngle)
		}
		if d > sidelobeExclusionDeg && s.Values[k] > best {
			best = s.Values[k]
		}
	}
	return best - peakValue
}
