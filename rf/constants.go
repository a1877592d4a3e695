// Package rf holds the unit contract shared by the propagation, detection and
// antenna packages: physical constants, dB conversions and the error taxonomy.
package rf

import (
	"math"

	"github.com/wiless/vlib"
)

// Fixed constants. These are part of the units contract and never vary per call.
const (
	SpeedOfLight = 3.0e8    // m/s
	Boltzmann    = 1.38e-23 // J/K
	T0           = 290.0    // K, standard noise temperature

	EarthRadiusM = 6371000.0
	// KFactor scales the true Earth radius for standard atmospheric refraction.
	KFactor = 4.0 / 3.0
)

// EffectiveEarthRadiusM returns the 4/3 refracted Earth radius for radius r (metres).
func EffectiveEarthRadiusM(r float64) float64 {
	return r * KFactor
}

// WavelengthM returns the free space wavelength in metres for a frequency in GHz.
func WavelengthM(freqGHz float64) float64 {
	return SpeedOfLight / (freqGHz * 1e9)
}

// Db converts a linear power ratio to dB.
func Db(linear float64) float64 {
	return vlib.Db(linear)
}

// InvDb converts dB to a linear power ratio.
func InvDb(db float64) float64 {
	return vlib.InvDb(db)
}

// AmplitudeScale returns the field (voltage) scale factor for a power offset in dB.
func AmplitudeScale(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
