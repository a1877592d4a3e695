package pathloss

import (
	"math"
	"sort"
	"strings"

	"github.com/wiless/radarperf/rf"
)

// Atmosphere carries the weather inputs of the loss model.
type Atmosphere struct {
	TemperatureC float64 `json:"temperature_c" mapstructure:"temperature_c" yaml:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct" mapstructure:"humidity_pct" yaml:"humidity_pct"`
	PressureHPa  float64 `json:"pressure_hpa" mapstructure:"pressure_hpa" yaml:"pressure_hpa"`
	RainRateMmH  float64 `json:"rain_rate_mm_h" mapstructure:"rain_rate_mm_h" yaml:"rain_rate_mm_h"`
	// FogVisibilityKm of zero (or +Inf) means no fog.
	FogVisibilityKm float64 `json:"fog_visibility_km" mapstructure:"fog_visibility_km" yaml:"fog_visibility_km"`
}

// StandardAtmosphere is 15 C, 50 % humidity, 1013.25 hPa, dry and clear.
func StandardAtmosphere() Atmosphere {
	return Atmosphere{TemperatureC: 15, HumidityPct: 50, PressureHPa: 1013.25}
}

var atmospherePresets = map[string]Atmosphere{
	"standard":  StandardAtmosphere(),
	"anomalous": {TemperatureC: 20, HumidityPct: 80, PressureHPa: 1013.25},
	"rainy":     {TemperatureC: 15, HumidityPct: 90, PressureHPa: 1013.25, RainRateMmH: 25},
	"sandstorm": {TemperatureC: 25, HumidityPct: 30, PressureHPa: 1013.25, FogVisibilityKm: 0.5},
}

// AtmospherePreset returns a named weather preset.
func AtmospherePreset(name string) (Atmosphere, error) {
	a, ok := atmospherePresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Atmosphere{}, rf.InvalidParameter("unknown atmosphere preset %q (known: %s)", name, strings.Join(AtmospherePresetNames(), ", "))
	}
	return a, nil
}

// AtmospherePresetNames lists the preset names in sorted order.
func AtmospherePresetNames() []string {
	names := make([]string, 0, len(atmospherePresets))
	for k := range atmospherePresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks physical ranges of the weather inputs.
func (a Atmosphere) Validate() error {
	if err := rf.Finite("temperature", a.TemperatureC); err != nil {
		return err
	}
	if a.TemperatureC <= -100 {
		return rf.InvalidParameter("temperature must be > -100 C, got %v", a.TemperatureC)
	}
	if a.HumidityPct < 0 || a.HumidityPct > 100 || math.IsNaN(a.HumidityPct) {
		return rf.InvalidParameter("humidity must be in [0,100] %%, got %v", a.HumidityPct)
	}
	if err := rf.Positive("pressure", a.PressureHPa); err != nil {
		return err
	}
	if err := rf.NonNegative("rain rate", a.RainRateMmH); err != nil {
		return err
	}
	if a.FogVisibilityKm < 0 || math.IsNaN(a.FogVisibilityKm) {
		return rf.InvalidParameter("fog visibility must be >= 0 km, got %v", a.FogVisibilityKm)
	}
	return nil
}

func oxygenCoefficient(freqGHz float64) float64 {
	switch {
	case freqGHz < 1:
		return 0.1
	case freqGHz < 10:
		return 0.2 + 0.1*freqGHz
	default:
		return 0.5 + 0.05*freqGHz
	}
}

// AtmosphericAbsorption returns gaseous (oxygen + water vapour) loss in dB
// over distKm, scaled for temperature and pressure.
func AtmosphericAbsorption(freqGHz, distKm, tempC, humidityPct, pressureHPa float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	a := Atmosphere{TemperatureC: tempC, HumidityPct: humidityPct, PressureHPa: pressureHPa}
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return atmosphericAbsorption(freqGHz, distKm, a), nil
}

func atmosphericAbsorption(freqGHz, distKm float64, a Atmosphere) float64 {
	gammaO := oxygenCoefficient(freqGHz)
	gammaW := 0.1 * a.HumidityPct / 100
	tempFactor := 1 + 0.01*(a.TemperatureC-15)
	pressureFactor := a.PressureHPa / 1013.25
	return (gammaO + gammaW) * distKm * tempFactor * pressureFactor
}

// rainBand is one row of the specific-attenuation table k*R^alpha (dB/km).
type rainBand struct {
	belowGHz float64
	k, alpha float64
}

var rainBands = []rainBand{
	{belowGHz: 10, k: 0.01, alpha: 1.0},
	{belowGHz: 20, k: 0.1, alpha: 1.0},
	{belowGHz: math.Inf(1), k: 0.5, alpha: 1.0},
}

// RainCoefficients returns the (k, alpha) pair used at freqGHz.
func RainCoefficients(freqGHz float64) (k, alpha float64) {
	for _, b := range rainBands {
		if freqGHz < b.belowGHz {
			return b.k, b.alpha
		}
	}
	last := rainBands[len(rainBands)-1]
	return last.k, last.alpha
}

// PrecipitationAttenuation returns k*R^alpha*d dB; zero when not raining.
func PrecipitationAttenuation(freqGHz, distKm, rainRateMmH float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	if err := rf.NonNegative("rain rate", rainRateMmH); err != nil {
		return 0, err
	}
	return precipitationAttenuation(freqGHz, distKm, rainRateMmH), nil
}

func precipitationAttenuation(freqGHz, distKm, rate float64) float64 {
	if rate == 0 {
		return 0
	}
	k, alpha := RainCoefficients(freqGHz)
	return k * math.Pow(rate, alpha) * distKm
}

// fogSteps maps visibility thresholds (km, inclusive) to specific attenuation (dB/km).
var fogSteps = []struct{ visKm, dbPerKm float64 }{
	{0.05, 0.5},
	{0.5, 0.1},
	{1.0, 0.05},
}

// FogAttenuation returns the stepwise fog loss in dB. Visibility of zero or
// +Inf, or above 1 km, is clear air.
func FogAttenuation(freqGHz, distKm, visibilityKm float64) (float64, error) {
	if err := rf.Positive("frequency", freqGHz); err != nil {
		return 0, err
	}
	if err := rf.Positive("distance", distKm); err != nil {
		return 0, err
	}
	if visibilityKm < 0 || math.IsNaN(visibilityKm) {
		return 0, rf.InvalidParameter("fog visibility must be >= 0 km, got %v", visibilityKm)
	}
	return fogAttenuation(distKm, visibilityKm), nil
}

func fogAttenuation(distKm, visibilityKm float64) float64 {
	if visibilityKm == 0 {
		return 0
	}
	for _, s := range fogSteps {
		if visibilityKm <= s.visKm {
			return s.dbPerKm * distKm
		}
	}
	return 0
}
