package antenna

import (
	"math"

	"github.com/wiless/radarperf/rf"
)

// FieldFunc returns the far-field components towards (theta, phi) in degrees.
type FieldFunc func(thetaDeg, phiDeg float64) (eTheta, ePhi complex128)

// Synthesize samples fn on theta = 0, thetaStep, ... <= 180 and
// phi = 0, phiStep, ... < 360.
func Synthesize(freqGHz, thetaStepDeg, phiStepDeg float64, fn FieldFunc) (*RadiationPattern, error) {
	if !(thetaStepDeg > 0 && thetaStepDeg <= 180) {
		return nil, rf.InvalidParameter("theta step must be in (0,180], got %v", thetaStepDeg)
	}
	if !(phiStepDeg > 0 && phiStepDeg <= 360) {
		return nil, rf.InvalidParameter("phi step must be in (0,360], got %v", phiStepDeg)
	}
	theta := regularAxis(thetaStepDeg, 180, true)
	phi := regularAxis(phiStepDeg, 360, false)
	et := make([][]complex128, len(theta))
	ep := make([][]complex128, len(theta))
	for i, th := range theta {
		et[i] = make([]complex128, len(phi))
		ep[i] = make([]complex128, len(phi))
		for j, ph := range phi {
			et[i][j], ep[i][j] = fn(th, ph)
		}
	}
	return NewRadiationPattern(freqGHz, theta, phi, et, ep)
}

// Isotropic radiates unit theta-polarized field in every direction.
func Isotropic(freqGHz, thetaStepDeg, phiStepDeg float64) (*RadiationPattern, error) {
	return Synthesize(freqGHz, thetaStepDeg, phiStepDeg, func(float64, float64) (complex128, complex128) {
		return 1, 0
	})
}

// HalfWaveDipole is a z-directed half-wave dipole.
func HalfWaveDipole(freqGHz, thetaStepDeg, phiStepDeg float64) (*RadiationPattern, error) {
	return Synthesize(freqGHz, thetaStepDeg, phiStepDeg, func(th, _ float64) (complex128, complex128) {
		s := math.Sin(rf.Deg2Rad(th))
		if math.Abs(s) < 1e-12 {
			return 0, 0
		}
		return complex(math.Cos(math.Pi/2*math.Cos(rf.Deg2Rad(th)))/s, 0), 0
	})
}

// angleBetween is the great-circle angle between two (theta, phi) directions.
func angleBetween(th1, ph1, th2, ph2 float64) float64 {
	t1, t2 := rf.Deg2Rad(th1), rf.Deg2Rad(th2)
	c := math.Cos(t1)*math.Cos(t2) + math.Sin(t1)*math.Sin(t2)*math.Cos(rf.Deg2Rad(ph1-ph2))
	return rf.Rad2Deg(math.Acos(math.Max(-1, math.Min(1, c))))
}

// Gaussian is a single pencil beam towards (boresightTheta, boresightPhi)
// whose gain falls by 12*(offset/beamwidth)^2 dB, i.e. 3 dB at half the
// beamwidth. Polarization is circular when circular is set.
func Gaussian(freqGHz, thetaStepDeg, phiStepDeg, boresightTheta, boresightPhi, beamwidthDeg float64, circular bool) (*RadiationPattern, error) {
	if err := rf.Positive("beamwidth", beamwidthDeg); err != nil {
		return nil, err
	}
	return Synthesize(freqGHz, thetaStepDeg, phiStepDeg, func(th, ph float64) (complex128, complex128) {
		off := angleBetween(th, ph, boresightTheta, boresightPhi)
		amp := complex(rf.AmplitudeScale(-12*math.Pow(off/beamwidthDeg, 2)), 0)
		if circular {
			return amp / complex(math.Sqrt2, 0), 1i * amp / complex(math.Sqrt2, 0)
		}
		return amp, 0
	})
}

// Sector samples a single sector element.
func Sector(freqGHz, thetaStepDeg, phiStepDeg float64, s SectorSetting) (*RadiationPattern, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return Synthesize(freqGHz, thetaStepDeg, phiStepDeg, func(th, ph float64) (complex128, complex128) {
		_, _, g := s.PatternDb(th, ph)
		return complex(rf.AmplitudeScale(g), 0), 0
	})
}
