package detection

import (
	"math"

	"github.com/wiless/radarperf/rf"
)

var fourPiCubed = math.Pow(4*math.Pi, 3)

// NoisePowerW is k*T0*B*F at the receiver input.
func NoisePowerW(r RadarParameters) float64 {
	return rf.Boltzmann * rf.T0 * r.Bandwidth() * rf.InvDb(r.NoiseFigureDb)
}

// radarConstant is Pt*G^2*lambda^2 / ((4pi)^3 * L * N); SNR = c*sigma/R^4.
func radarConstant(r RadarParameters, lossesDb float64) float64 {
	g := rf.InvDb(r.AntennaGainDbi)
	lambda := r.WavelengthM()
	den := fourPiCubed * rf.InvDb(lossesDb) * NoisePowerW(r)
	return r.PeakPowerW * g * g * lambda * lambda / den
}

func validateEquation(r RadarParameters, lossesDb float64) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return rf.Finite("losses", lossesDb)
}

// SNRAtRange returns the single-pulse SNR in dB of a target of rcsM2 at
// rangeM metres. Underflow gives -Inf rather than an error.
func SNRAtRange(r RadarParameters, rcsM2, rangeM, lossesDb float64) (float64, error) {
	if err := validateEquation(r, lossesDb); err != nil {
		return 0, err
	}
	if err := rf.Positive("RCS", rcsM2); err != nil {
		return 0, err
	}
	if err := rf.Positive("range", rangeM); err != nil {
		return 0, err
	}
	return snrAtRange(r, rcsM2, rangeM, lossesDb), nil
}

func snrAtRange(r RadarParameters, rcsM2, rangeM, lossesDb float64) float64 {
	snr := radarConstant(r, lossesDb) * rcsM2 / math.Pow(rangeM, 4)
	if snr <= 0 || math.IsNaN(snr) {
		return math.Inf(-1)
	}
	return rf.Db(snr)
}

// MaxDetectionRange returns the range in metres at which the SNR falls to minSNRDb.
func MaxDetectionRange(r RadarParameters, rcsM2, minSNRDb, lossesDb float64) (float64, error) {
	if err := validateEquation(r, lossesDb); err != nil {
		return 0, err
	}
	if err := rf.Positive("RCS", rcsM2); err != nil {
		return 0, err
	}
	if err := rf.Finite("minimum SNR", minSNRDb); err != nil {
		return 0, err
	}
	return maxDetectionRange(r, rcsM2, minSNRDb, lossesDb), nil
}

func maxDetectionRange(r RadarParameters, rcsM2, minSNRDb, lossesDb float64) float64 {
	return math.Pow(radarConstant(r, lossesDb)*rcsM2/rf.InvDb(minSNRDb), 0.25)
}

// MinimumDetectableRCS returns the smallest RCS in m^2 that reaches minSNRDb at rangeM.
func MinimumDetectableRCS(r RadarParameters, rangeM, minSNRDb, lossesDb float64) (float64, error) {
	if err := validateEquation(r, lossesDb); err != nil {
		return 0, err
	}
	if err := rf.Positive("range", rangeM); err != nil {
		return 0, err
	}
	if err := rf.Finite("minimum SNR", minSNRDb); err != nil {
		return 0, err
	}
	return minimumDetectableRCS(r, rangeM, minSNRDb, lossesDb), nil
}

func minimumDetectableRCS(r RadarParameters, rangeM, minSNRDb, lossesDb float64) float64 {
	c := radarConstant(r, lossesDb)
	if c == 0 {
		return math.Inf(1)
	}
	return rf.InvDb(minSNRDb) * math.Pow(rangeM, 4) / c
}

// RangeResolutionM is c/(2B).
func RangeResolutionM(r RadarParameters) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return rf.SpeedOfLight / (2 * r.Bandwidth()), nil
}

// MaxUnambiguousRangeM is c/(2*PRF).
func MaxUnambiguousRangeM(r RadarParameters) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if err := rf.Positive("PRF", r.PRFHz); err != nil {
		return 0, err
	}
	return rf.SpeedOfLight / (2 * r.PRFHz), nil
}

// DopplerAmbiguityHz is the largest unambiguous Doppler magnitude, PRF/2.
func DopplerAmbiguityHz(r RadarParameters) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if err := rf.Positive("PRF", r.PRFHz); err != nil {
		return 0, err
	}
	return r.PRFHz / 2, nil
}

// MaxUnambiguousVelocityMS is PRF*lambda/4.
func MaxUnambiguousVelocityMS(r RadarParameters) (float64, error) {
	fd, err := DopplerAmbiguityHz(r)
	if err != nil {
		return 0, err
	}
	return fd * r.WavelengthM() / 2, nil
}

// DopplerShiftHz is 2*v/lambda for a closing radial velocity v in m/s.
func DopplerShiftHz(freqGHz, radialVelocityMS float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Finite("radial velocity", radialVelocityMS); err != nil {
		return 0, err
	}
	return 2 * radialVelocityMS / rf.WavelengthM(freqGHz), nil
}

// PowerApertureProduct returns Pt*Ae in W*m^2 with Ae = G*lambda^2/(4pi).
func PowerApertureProduct(r RadarParameters) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	lambda := r.WavelengthM()
	ae := rf.InvDb(r.AntennaGainDbi) * lambda * lambda / (4 * math.Pi)
	return r.PeakPowerW * ae, nil
}

// RadarHorizonM is the 4/3-Earth radio horizon between a radar at
// radarHeightM and a target at targetHeightM.
func RadarHorizonM(radarHeightM, targetHeightM float64) (float64, error) {
	if err := rf.NonNegative("radar height", radarHeightM); err != nil {
		return 0, err
	}
	if err := rf.NonNegative("target height", targetHeightM); err != nil {
		return 0, err
	}
	re := rf.EffectiveEarthRadiusM(rf.EarthRadiusM)
	return math.Sqrt(2*re*radarHeightM) + math.Sqrt(2*re*targetHeightM), nil
}
