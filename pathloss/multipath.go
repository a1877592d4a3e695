package pathloss

import (
	"math"
	"math/cmplx"

	"github.com/wiless/radarperf/rf"
)

// MultipathFading returns the two-path interference term 20*log10|1 + rho*exp(-j*phi)|
// in dB for a ground reflection with coefficient rho in [0,1]. The path
// difference is 2*ht*hr/d and the reflection adds a pi phase shift. The
// result is signed: positive for constructive and negative for destructive
// interference, and -Inf at an exact null with rho = 1.
func MultipathFading(distKm, freqGHz, rho, txHeightM, rxHeightM float64) (float64, error) {
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if rho < 0 || rho > 1 || math.IsNaN(rho) {
		return 0, rf.InvalidParameter("reflection coefficient must be in [0,1], got %v", rho)
	}
	if err := rf.NonNegative("tx height", txHeightM); err != nil {
		return 0, err
	}
	if err := rf.NonNegative("rx height", rxHeightM); err != nil {
		return 0, err
	}
	return multipathFading(distKm, freqGHz, rho, txHeightM, rxHeightM), nil
}

func multipathFading(distKm, freqGHz, rho, ht, hr float64) float64 {
	delta := 2 * ht * hr / (distKm * 1e3)
	phi := 2*math.Pi*delta/rf.WavelengthM(freqGHz) + math.Pi
	sum := 1 + complex(rho, 0)*cmplx.Exp(complex(0, -phi))
	return 20 * math.Log10(cmplx.Abs(sum))
}
