package detection

import (
	"github.com/wiless/radarperf/rf"
)

// Criteria are the detector settings used by Evaluate.
type Criteria struct {
	Pfa float64 `json:"pfa" mapstructure:"pfa" yaml:"pfa"`
	// Pulses of zero means a single pulse.
	Pulses   int     `json:"pulses" mapstructure:"pulses" yaml:"pulses"`
	MinSNRDb float64 `json:"min_snr_db" mapstructure:"min_snr_db" yaml:"min_snr_db"`
}

// DefaultCriteria is Pfa 1e-6, ten pulses and a 12 dB detection SNR.
func DefaultCriteria() Criteria {
	return Criteria{Pfa: 1e-6, Pulses: 10, MinSNRDb: 12}
}

func (c Criteria) pulses() int {
	if c.Pulses == 0 {
		return 1
	}
	return c.Pulses
}

func (c Criteria) Validate() error {
	if c.Pulses < 0 {
		return rf.InvalidParameter("pulse count must be >= 0, got %d", c.Pulses)
	}
	if err := validateDetection(c.Pfa, c.pulses()); err != nil {
		return err
	}
	return rf.Finite("minimum SNR", c.MinSNRDb)
}

// DetectionResult is the full detection figure of merit for one target.
type DetectionResult struct {
	Model          FluctuationModel `json:"model" yaml:"model"`
	RangeM         float64          `json:"range_m" yaml:"range_m"`
	LossesDb       float64          `json:"losses_db" yaml:"losses_db"`
	SNRDb          float64          `json:"snr_db" yaml:"snr_db"`
	Pd             float64          `json:"pd" yaml:"pd"`
	Pfa            float64          `json:"pfa" yaml:"pfa"`
	Pulses         int              `json:"pulses" yaml:"pulses"`
	Threshold      float64          `json:"threshold" yaml:"threshold"`
	MaxRangeM      float64          `json:"max_range_m" yaml:"max_range_m"`
	MinRCSM2       float64          `json:"min_rcs_m2" yaml:"min_rcs_m2"`
	DopplerShiftHz float64          `json:"doppler_shift_hz" yaml:"doppler_shift_hz"`
}

// Detected reports whether the target SNR reaches the detection SNR.
func (d DetectionResult) Detected(c Criteria) bool {
	return d.SNRDb >= c.MinSNRDb
}

// Evaluate computes SNR, Pd, threshold, maximum range, minimum RCS at the
// target range and Doppler shift in one pass.
func Evaluate(r RadarParameters, t TargetParameters, c Criteria, lossesDb float64) (DetectionResult, error) {
	if err := validateEquation(r, lossesDb); err != nil {
		return DetectionResult{}, err
	}
	if err := t.Validate(); err != nil {
		return DetectionResult{}, err
	}
	if err := c.Validate(); err != nil {
		return DetectionResult{}, err
	}
	n := c.pulses()
	snrDb := snrAtRange(r, t.RCSM2, t.RangeM, lossesDb)
	return DetectionResult{
		Model:          t.Fluctuation,
		RangeM:         t.RangeM,
		LossesDb:       lossesDb,
		SNRDb:          snrDb,
		Pd:             detectionProbability(rf.InvDb(snrDb), c.Pfa, n, t.Fluctuation),
		Pfa:            c.Pfa,
		Pulses:         n,
		Threshold:      detectionThreshold(c.Pfa, n),
		MaxRangeM:      maxDetectionRange(r, t.RCSM2, c.MinSNRDb, lossesDb),
		MinRCSM2:       minimumDetectableRCS(r, t.RangeM, c.MinSNRDb, lossesDb),
		DopplerShiftHz: 2 * t.RadialVelocityMS / r.WavelengthM(),
	}, nil
}
