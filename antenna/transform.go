package antenna

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/wiless/radarperf/rf"
	"gonum.org/v1/gonum/interp"
)

// Normalize returns a copy of p with both field grids scaled so that the
// peak gain equals targetMaxDb.
func (p *RadiationPattern) Normalize(targetMaxDb float64) (*RadiationPattern, error) {
	if err := rf.Finite("target max gain", targetMaxDb); err != nil {
		return nil, err
	}
	nt, np := p.Shape()
	peak := 0.0
	for i := 0; i < nt; i++ {
		for j := 0; j < np; j++ {
			peak = math.Max(peak, p.power(i, j))
		}
	}
	if peak == 0 {
		return nil, rf.InvalidPattern("cannot normalize a pattern with no radiated field")
	}
	delta := targetMaxDb - 10*math.Log10(peak)
	scale := complex(rf.AmplitudeScale(delta), 0)
	et := make([][]complex128, nt)
	ep := make([][]complex128, nt)
	for i := 0; i < nt; i++ {
		et[i] = make([]complex128, np)
		ep[i] = make([]complex128, np)
		for j := 0; j < np; j++ {
			et[i][j] = p.eTheta[i][j] * scale
			ep[i][j] = p.ePhi[i][j] * scale
		}
	}
	return NewRadiationPattern(p.freqGHz, p.theta, p.phi, et, ep)
}

// Interpolate resamples p onto a regular grid. See InterpolateContext.
func (p *RadiationPattern) Interpolate(thetaStepDeg, phiStepDeg float64) (*RadiationPattern, error) {
	return p.InterpolateContext(context.Background(), thetaStepDeg, phiStepDeg)
}

// regularAxis returns 0, step, 2*step ... up to hi (inclusive when closed).
func regularAxis(step, hi float64, closed bool) []float64 {
	var axis []float64
	for k := 0; ; k++ {
		a := float64(k) * step
		if a > hi+1e-9 || (!closed && a >= hi-1e-9) {
			break
		}
		axis = append(axis, math.Min(a, hi))
	}
	return axis
}

// fitCurve fits a natural cubic spline, or a straight line through two points,
// or a constant for one point.
func fitCurve(xs, ys []float64) (interp.Predictor, error) {
	xs = append([]float64(nil), xs...)
	ys = append([]float64(nil), ys...)
	switch len(xs) {
	case 1:
		return constant(ys[0]), nil
	case 2:
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, err
		}
		return &pl, nil
	default:
		var nc interp.NaturalCubic
		if err := nc.Fit(xs, ys); err != nil {
			return nil, err
		}
		return &nc, nil
	}
}

type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// channels are the four real components resampled independently.
const channels = 4

func (p *RadiationPattern) channel(c, i, j int) float64 {
	switch c {
	case 0:
		return real(p.eTheta[i][j])
	case 1:
		return imag(p.eTheta[i][j])
	case 2:
		return real(p.ePhi[i][j])
	default:
		return imag(p.ePhi[i][j])
	}
}

// InterpolateContext resamples the four real field channels onto theta =
// 0, thetaStep, ... <= 180 and phi = 0, phiStep, ... < 360 with a
// tensor-product natural cubic spline. Points outside the sampled domain get
// zero field. Azimuth cuts covering the full circle are interpolated
// periodically. The context is checked before each output theta row; on
// cancellation the partial result is discarded and ctx.Err() returned.
func (p *RadiationPattern) InterpolateContext(ctx context.Context, thetaStepDeg, phiStepDeg float64) (*RadiationPattern, error) {
	if !(thetaStepDeg > 0 && thetaStepDeg <= 180) {
		return nil, rf.InvalidParameter("theta step must be in (0,180], got %v", thetaStepDeg)
	}
	if !(phiStepDeg > 0 && phiStepDeg <= 360) {
		return nil, rf.InvalidParameter("phi step must be in (0,360], got %v", phiStepDeg)
	}
	newTheta := regularAxis(thetaStepDeg, 180, true)
	newPhi := regularAxis(phiStepDeg, 360, false)

	nt, np := p.Shape()
	// knots along phi, extended by one period when the cut wraps
	phiKnots := p.Phi()
	wrap := p.phiCircular()
	if wrap {
		phiKnots = append(phiKnots, p.phi[0]+360)
	}

	// one theta-direction curve per (channel, original phi column)
	columns := make([][]interp.Predictor, channels)
	ys := make([]float64, nt)
	for c := 0; c < channels; c++ {
		columns[c] = make([]interp.Predictor, np)
		for j := 0; j < np; j++ {
			for i := 0; i < nt; i++ {
				ys[i] = p.channel(c, i, j)
			}
			curve, err := fitCurve(p.theta, ys)
			if err != nil {
				return nil, errors.Wrap(err, "antenna: fit theta curve")
			}
			columns[c][j] = curve
		}
	}

	thetaLo, thetaHi := p.theta[0], p.theta[nt-1]
	phiLo, phiHi := phiKnots[0], phiKnots[len(phiKnots)-1]
	et := make([][]complex128, len(newTheta))
	ep := make([][]complex128, len(newTheta))
	row := make([]float64, len(phiKnots))
	var values [channels][]float64
	for r, th := range newTheta {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		et[r] = make([]complex128, len(newPhi))
		ep[r] = make([]complex128, len(newPhi))
		if th < thetaLo-1e-9 || th > thetaHi+1e-9 {
			continue
		}
		for c := 0; c < channels; c++ {
			for j := 0; j < np; j++ {
				row[j] = columns[c][j].Predict(th)
			}
			if wrap {
				row[np] = row[0]
			}
			curve, err := fitCurve(phiKnots, row)
			if err != nil {
				return nil, errors.Wrap(err, "antenna: fit phi curve")
			}
			values[c] = make([]float64, len(newPhi))
			for k, ph := range newPhi {
				q := ph
				if wrap && q < phiLo {
					q += 360
				}
				if q < phiLo-1e-9 || q > phiHi+1e-9 {
					continue
				}
				values[c][k] = curve.Predict(q)
			}
		}
		for k := range newPhi {
			et[r][k] = complex(values[0][k], values[1][k])
			ep[r][k] = complex(values[2][k], values[3][k])
		}
	}
	return NewRadiationPattern(p.freqGHz, newTheta, newPhi, et, ep)
}
