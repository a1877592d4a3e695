// Package detection evaluates the monostatic radar equation and closed-form
// detection probabilities for steady and fluctuating targets.
package detection

import (
	"strings"

	"github.com/wiless/radarperf/rf"
)

// RadarParameters describes the transmitter, antenna and receiver chain.
type RadarParameters struct {
	FreqGHz        float64 `json:"freq_ghz" mapstructure:"freq_ghz" yaml:"freq_ghz"`
	PeakPowerW     float64 `json:"peak_power_w" mapstructure:"peak_power_w" yaml:"peak_power_w"`
	AntennaGainDbi float64 `json:"antenna_gain_dbi" mapstructure:"antenna_gain_dbi" yaml:"antenna_gain_dbi"`
	PulseWidthS    float64 `json:"pulse_width_s" mapstructure:"pulse_width_s" yaml:"pulse_width_s"`
	PRFHz          float64 `json:"prf_hz" mapstructure:"prf_hz" yaml:"prf_hz"`
	// BandwidthHz of zero means 1/PulseWidthS.
	BandwidthHz    float64 `json:"bandwidth_hz,omitempty" mapstructure:"bandwidth_hz" yaml:"bandwidth_hz,omitempty"`
	NoiseFigureDb  float64 `json:"noise_figure_db" mapstructure:"noise_figure_db" yaml:"noise_figure_db"`
	SystemLossesDb float64 `json:"system_losses_db" mapstructure:"system_losses_db" yaml:"system_losses_db"`
}

// Validate checks the ranges required by the radar equation.
func (r RadarParameters) Validate() error {
	if err := rf.Positive("frequency", r.FreqGHz); err != nil {
		return err
	}
	if err := rf.Positive("peak power", r.PeakPowerW); err != nil {
		return err
	}
	if err := rf.Finite("antenna gain", r.AntennaGainDbi); err != nil {
		return err
	}
	if err := rf.Positive("pulse width", r.PulseWidthS); err != nil {
		return err
	}
	if err := rf.NonNegative("PRF", r.PRFHz); err != nil {
		return err
	}
	if err := rf.NonNegative("bandwidth", r.BandwidthHz); err != nil {
		return err
	}
	if err := rf.Finite("noise figure", r.NoiseFigureDb); err != nil {
		return err
	}
	return rf.Finite("system losses", r.SystemLossesDb)
}

// Bandwidth returns the receiver noise bandwidth in Hz.
func (r RadarParameters) Bandwidth() float64 {
	if r.BandwidthHz > 0 {
		return r.BandwidthHz
	}
	return 1 / r.PulseWidthS
}

// WavelengthM returns the carrier wavelength.
func (r RadarParameters) WavelengthM() float64 {
	return rf.WavelengthM(r.FreqGHz)
}

type FluctuationModel int

const (
	NonFluctuating FluctuationModel = iota
	Swerling1
	Swerling3
)

var FluctuationModels = [...]string{
	"NonFluctuating",
	"Swerling1",
	"Swerling3",
}

var fluctuationAliases = map[string]FluctuationModel{
	"nonfluctuating": NonFluctuating,
	"swerling0":      NonFluctuating,
	"steady":         NonFluctuating,
	"swerling1":      Swerling1,
	"swerlingi":      Swerling1,
	"swerling3":      Swerling3,
	"swerlingiii":    Swerling3,
}

func (m FluctuationModel) String() string {
	if int(m) < 0 || int(m) >= len(FluctuationModels) {
		return "Unknown-FluctuationModel"
	}
	return FluctuationModels[m]
}

// ParseFluctuationModel accepts forms such as "swerling1", "Swerling I" or
// "non-fluctuating". The empty string is NonFluctuating.
func ParseFluctuationModel(s string) (FluctuationModel, error) {
	key := strings.ToLower(s)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if key == "" {
		return NonFluctuating, nil
	}
	if m, ok := fluctuationAliases[key]; ok {
		return m, nil
	}
	return NonFluctuating, rf.InvalidParameter("unknown fluctuation model %q", s)
}

func (m FluctuationModel) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FluctuationModel) UnmarshalText(b []byte) error {
	v, err := ParseFluctuationModel(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// TargetParameters describes a point target.
type TargetParameters struct {
	RCSM2            float64          `json:"rcs_m2" mapstructure:"rcs_m2" yaml:"rcs_m2"`
	Fluctuation      FluctuationModel `json:"fluctuation" mapstructure:"fluctuation" yaml:"fluctuation"`
	RangeM           float64          `json:"range_m" mapstructure:"range_m" yaml:"range_m"`
	RadialVelocityMS float64          `json:"radial_velocity_m_s" mapstructure:"radial_velocity_m_s" yaml:"radial_velocity_m_s"`
	AltitudeM        float64          `json:"altitude_m" mapstructure:"altitude_m" yaml:"altitude_m"`
}

func (t TargetParameters) Validate() error {
	if err := rf.Positive("RCS", t.RCSM2); err != nil {
		return err
	}
	if err := rf.Positive("target range", t.RangeM); err != nil {
		return err
	}
	if t.Fluctuation < NonFluctuating || t.Fluctuation > Swerling3 {
		return rf.InvalidParameter("fluctuation model %d", int(t.Fluctuation))
	}
	if err := rf.Finite("radial velocity", t.RadialVelocityMS); err != nil {
		return err
	}
	return rf.Finite("target altitude", t.AltitudeM)
}
