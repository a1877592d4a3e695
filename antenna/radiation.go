package antenna

import (
	"math"
	"math/cmplx"

	"github.com/wiless/radarperf/rf"
	"github.com/wiless/vlib"
	"gonum.org/v1/gonum/integrate"
)

// powerFloor keeps the gain grid finite where both field components vanish.
const powerFloor = 1e-20

// RadiationPattern is a sampled far-field over theta (zenith, [0,180] deg) and
// phi (azimuth, [0,360) deg). The gain, directivity and axial-ratio grids are
// derived once from the field grids at construction; a RadiationPattern is
// never modified after that, and every transform returns a new one.
type RadiationPattern struct {
	freqGHz float64
	theta   vlib.VectorF
	phi     vlib.VectorF
	eTheta  [][]complex128
	ePhi    [][]complex128

	gain        vlib.MatrixF // dBi
	directivity vlib.MatrixF // dBi
	axialRatio  vlib.MatrixF // dB
}

// NewRadiationPattern copies the axes and field grids, validates their shape
// and derives the power grids. eTheta and ePhi are indexed [theta][phi].
func NewRadiationPattern(freqGHz float64, theta, phi []float64, eTheta, ePhi [][]complex128) (*RadiationPattern, error) {
	if err := rf.Positive("pattern frequency", freqGHz); err != nil {
		return nil, err
	}
	if err := checkAxis("theta", theta, 0, 180, true); err != nil {
		return nil, err
	}
	if err := checkAxis("phi", phi, 0, 360, false); err != nil {
		return nil, err
	}
	p := &RadiationPattern{
		freqGHz: freqGHz,
		theta:   append(vlib.VectorF(nil), theta...),
		phi:     append(vlib.VectorF(nil), phi...),
	}
	var err error
	if p.eTheta, err = copyGrid("E-theta", eTheta, len(theta), len(phi)); err != nil {
		return nil, err
	}
	if p.ePhi, err = copyGrid("E-phi", ePhi, len(theta), len(phi)); err != nil {
		return nil, err
	}
	p.derive()
	return p, nil
}

func checkAxis(name string, axis []float64, lo, hi float64, closed bool) error {
	if len(axis) == 0 {
		return rf.InvalidPattern("%s axis is empty", name)
	}
	for i, a := range axis {
		if math.IsNaN(a) || a < lo || a > hi || (!closed && a == hi) {
			return rf.InvalidPattern("%s[%d] = %v outside the %s axis range", name, i, a, name)
		}
		if i > 0 && a <= axis[i-1] {
			return rf.InvalidPattern("%s axis must be strictly increasing at index %d", name, i)
		}
	}
	return nil
}

func copyGrid(name string, g [][]complex128, rows, cols int) ([][]complex128, error) {
	if len(g) != rows {
		return nil, rf.InvalidPattern("%s grid has %d rows, want %d (theta samples)", name, len(g), rows)
	}
	out := make([][]complex128, rows)
	for i, row := range g {
		if len(row) != cols {
			return nil, rf.InvalidPattern("%s grid row %d has %d columns, want %d (phi samples)", name, i, len(row), cols)
		}
		for j, v := range row {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return nil, rf.InvalidPattern("%s[%d][%d] is not finite", name, i, j)
			}
		}
		out[i] = append([]complex128(nil), row...)
	}
	return out, nil
}

func (p *RadiationPattern) power(i, j int) float64 {
	a, b := cmplx.Abs(p.eTheta[i][j]), cmplx.Abs(p.ePhi[i][j])
	return a*a + b*b
}

func (p *RadiationPattern) derive() {
	nt, np := p.Shape()
	p.gain = vlib.NewMatrixF(nt, np)
	p.directivity = vlib.NewMatrixF(nt, np)
	p.axialRatio = vlib.NewMatrixF(nt, np)
	for i := 0; i < nt; i++ {
		for j := 0; j < np; j++ {
			p.gain[i][j] = 10 * math.Log10(p.power(i, j)+powerFloor)
			p.axialRatio[i][j] = axialRatioDb(p.eTheta[i][j], p.ePhi[i][j])
		}
	}
	total := p.radiatedPower()
	if !(total > 0) || math.IsInf(total, 0) {
		return
	}
	for i := 0; i < nt; i++ {
		for j := 0; j < np; j++ {
			p.directivity[i][j] = 10 * math.Log10(4*math.Pi*p.power(i, j)/total+powerFloor)
		}
	}
}

func axialRatioDb(et, ep complex128) float64 {
	a, b := cmplx.Abs(et), cmplx.Abs(ep)
	hi, lo := math.Max(a, b), math.Min(a, b)
	if hi == 0 {
		return 0
	}
	ar := 20 * math.Log10(hi/math.Max(lo, 1e-10))
	if math.IsNaN(ar) {
		return 0
	}
	return ar
}

// radiatedPower integrates P(theta,phi) sin(theta) over the sampled sphere.
// Phi is integrated periodically; a single phi cut is taken as symmetric.
func (p *RadiationPattern) radiatedPower() float64 {
	nt, np := p.Shape()
	if nt < 2 {
		return 0
	}
	thetaRad := make([]float64, nt)
	ring := make([]float64, nt)
	for i := 0; i < nt; i++ {
		thetaRad[i] = rf.Deg2Rad(p.theta[i])
		var sum float64
		if np == 1 {
			sum = 2 * math.Pi * p.power(i, 0)
		} else {
			for j := 0; j < np; j++ {
				next := (j + 1) % np
				width := p.phi[next] - p.phi[j]
				if next == 0 {
					width += 360
				}
				sum += 0.5 * (p.power(i, j) + p.power(i, next)) * rf.Deg2Rad(width)
			}
		}
		ring[i] = sum * math.Sin(thetaRad[i])
	}
	return integrate.Trapezoidal(thetaRad, ring)
}

// FreqGHz is the frequency the pattern was sampled at.
func (p *RadiationPattern) FreqGHz() float64 { return p.freqGHz }

// Shape returns the number of theta and phi samples.
func (p *RadiationPattern) Shape() (nTheta, nPhi int) {
	return len(p.theta), len(p.phi)
}

func (p *RadiationPattern) Theta() []float64 { return append([]float64(nil), p.theta...) }
func (p *RadiationPattern) Phi() []float64   { return append([]float64(nil), p.phi...) }

// Field returns the two complex field components at sample (i, j).
func (p *RadiationPattern) Field(i, j int) (eTheta, ePhi complex128) {
	return p.eTheta[i][j], p.ePhi[i][j]
}

func cloneMatrix(m vlib.MatrixF) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = append([]float64(nil), m[i]...)
	}
	return out
}

// GainGrid returns a copy of the gain grid in dBi.
func (p *RadiationPattern) GainGrid() [][]float64 { return cloneMatrix(p.gain) }

// DirectivityGrid returns a copy of the directivity grid in dBi. It is all
// zero when the sampled sphere carries no power.
func (p *RadiationPattern) DirectivityGrid() [][]float64 { return cloneMatrix(p.directivity) }

// AxialRatioGrid returns a copy of the axial-ratio grid in dB.
func (p *RadiationPattern) AxialRatioGrid() [][]float64 { return cloneMatrix(p.axialRatio) }

// nearestTheta clamps to the sampled range.
func (p *RadiationPattern) nearestTheta(deg float64) int {
	best := 0
	for i, t := range p.theta {
		if math.Abs(t-deg) < math.Abs(p.theta[best]-deg) {
			best = i
		}
	}
	return best
}

// nearestPhi measures distance around the circle.
func (p *RadiationPattern) nearestPhi(deg float64) int {
	deg = Wrap0To360(deg)
	best, bestDist := 0, math.Inf(1)
	for j, f := range p.phi {
		if d := circularDistance(f, deg); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// GainAt returns the gain of the nearest sample. Angles outside the sampled
// range fall back to the nearest sample.
func (p *RadiationPattern) GainAt(thetaDeg, phiDeg float64) float64 {
	return p.gain[p.nearestTheta(thetaDeg)][p.nearestPhi(phiDeg)]
}

// DirectivityAt is the nearest-sample directivity in dBi.
func (p *RadiationPattern) DirectivityAt(thetaDeg, phiDeg float64) float64 {
	return p.directivity[p.nearestTheta(thetaDeg)][p.nearestPhi(phiDeg)]
}

// AxialRatioAt is the nearest-sample axial ratio in dB.
func (p *RadiationPattern) AxialRatioAt(thetaDeg, phiDeg float64) float64 {
	return p.axialRatio[p.nearestTheta(thetaDeg)][p.nearestPhi(phiDeg)]
}

// MaxGain returns the peak gain and where it occurs. Ties keep the first
// sample in theta-major order.
func (p *RadiationPattern) MaxGain() (gainDbi, thetaDeg, phiDeg float64) {
	bi, bj := 0, 0
	for i := range p.gain {
		for j, g := range p.gain[i] {
			if g > p.gain[bi][bj] {
				bi, bj = i, j
			}
		}
	}
	return p.gain[bi][bj], p.theta[bi], p.phi[bj]
}

// phiCircular reports whether the phi samples wrap around the full circle,
// i.e. the gap from the last sample back to the first is no wider than the
// largest step between samples.
func (p *RadiationPattern) phiCircular() bool {
	n := len(p.phi)
	if n < 3 {
		return false
	}
	maxStep := 0.0
	for j := 1; j < n; j++ {
		maxStep = math.Max(maxStep, p.phi[j]-p.phi[j-1])
	}
	return 360-p.phi[n-1]+p.phi[0] <= maxStep+1e-9
}
