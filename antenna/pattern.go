// Package antenna holds sampled far-field radiation patterns, their
// principal-plane analysis and a few synthetic pattern generators.
package antenna

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
	"github.com/wiless/radarperf/rf"
)

// Wrap0To180 folds the input angle to 0 to 180
func Wrap0To180(degree float64) float64 {
	degree = math.Abs(Wrap180To180(degree))
	return degree
}

// Wrap180To180 wraps the input angle to -180 to 180
func Wrap180To180(degree float64) float64 {
	if degree >= -180 && degree <= 180 {
		return degree
	}
	degree = math.Mod(degree+180, 360)
	if degree < 0 {
		degree += 360
	}
	return degree - 180
}

// Wrap0To360 wraps the input angle to [0,360)
func Wrap0To360(degree float64) float64 {
	degree = math.Mod(degree, 360)
	if degree < 0 {
		degree += 360
	}
	return degree
}

// circularDistance is the smaller angle between a and b in degrees.
func circularDistance(a, b float64) float64 {
	return math.Abs(Wrap180To180(a - b))
}

// SectorSetting is the ITU-R M.2412 (Table 8-6) sector element, pointed at
// (TiltDeg zenith, AzimuthDeg).
type SectorSetting struct {
	MaxGainDbi float64 `json:"max_gain_dbi" mapstructure:"max_gain_dbi"`
	HBeamWidth float64 `json:"h_beamwidth" mapstructure:"h_beamwidth"`
	VBeamWidth float64 `json:"v_beamwidth" mapstructure:"v_beamwidth"`
	// SLAV is the vertical side lobe attenuation, Am the front-to-back cap.
	SLAV       float64 `json:"slav" mapstructure:"slav"`
	Am         float64 `json:"am" mapstructure:"am"`
	TiltDeg    float64 `json:"tilt_deg" mapstructure:"tilt_deg"`
	AzimuthDeg float64 `json:"azimuth_deg" mapstructure:"azimuth_deg"`
}

func (s *SectorSetting) SetDefault() {
	s.MaxGainDbi = 8
	s.HBeamWidth = 65
	s.VBeamWidth = 65
	s.SLAV = 30
	s.Am = 30
	s.TiltDeg = 90 // horizon
	s.AzimuthDeg = 0
}

func NewSectorSetting() *SectorSetting {
	result := new(SectorSetting)
	result.SetDefault()
	return result
}

// Set overlays a JSON document on the setting.
func (s *SectorSetting) Set(str string) error {
	if err := json.Unmarshal([]byte(str), s); err != nil {
		return errors.Wrap(err, "antenna: decode sector setting")
	}
	return s.Validate()
}

func (s *SectorSetting) Validate() error {
	if err := rf.Positive("horizontal beamwidth", s.HBeamWidth); err != nil {
		return err
	}
	if err := rf.Positive("vertical beamwidth", s.VBeamWidth); err != nil {
		return err
	}
	if err := rf.NonNegative("SLAV", s.SLAV); err != nil {
		return err
	}
	if err := rf.NonNegative("Am", s.Am); err != nil {
		return err
	}
	return rf.Finite("max gain", s.MaxGainDbi)
}

// PatternDb returns the element gain in dBi along (theta, phi), together with
// its horizontal and vertical parts.
func (s *SectorSetting) PatternDb(thetaDeg, phiDeg float64) (az, el, gain float64) {
	dphi := Wrap180To180(phiDeg - s.AzimuthDeg)
	az = -math.Min(12*math.Pow(dphi/s.HBeamWidth, 2), s.Am)
	el = -math.Min(12*math.Pow((thetaDeg-s.TiltDeg)/s.VBeamWidth, 2), s.SLAV)
	gain = -math.Min(-(az+el), s.Am) + s.MaxGainDbi
	return az, el, gain
}
