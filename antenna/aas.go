package antenna

import (
	"encoding/json"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/vlib"
)

// MaxArrayElements bounds the element count of an ArraySetting.
const MaxArrayElements = 1024

// ArraySetting is a uniform linear array of N elements stacked along the z
// axis, spaced SpacingFactor wavelengths apart and phase-steered to SteerDeg
// zenith (90 is broadside, i.e. the horizon).
type ArraySetting struct {
	N             int           `json:"n" mapstructure:"n"`
	SpacingFactor float64       `json:"spacing_factor" mapstructure:"spacing_factor"`
	SteerDeg      float64       `json:"steer_deg" mapstructure:"steer_deg"`
	Omni          bool          `json:"omni" mapstructure:"omni"`
	Element       SectorSetting `json:"element" mapstructure:"element"`
}

func (a *ArraySetting) SetDefault() {
	a.N = 8
	a.SpacingFactor = 0.5
	a.SteerDeg = 90
	a.Omni = false
	a.Element.SetDefault()
}

func NewArraySetting() *ArraySetting {
	result := new(ArraySetting)
	result.SetDefault()
	return result
}

// Set overlays a JSON document on the setting.
func (a *ArraySetting) Set(str string) error {
	if err := json.Unmarshal([]byte(str), a); err != nil {
		return errors.Wrap(err, "antenna: decode array setting")
	}
	return a.Validate()
}

func (a *ArraySetting) Validate() error {
	if a.N < 1 || a.N > MaxArrayElements {
		return rf.InvalidParameter("array needs 1 to %d elements, got %d", MaxArrayElements, a.N)
	}
	if err := rf.Positive("element spacing", a.SpacingFactor); err != nil {
		return err
	}
	if a.SteerDeg < 0 || a.SteerDeg > 180 || math.IsNaN(a.SteerDeg) {
		return rf.InvalidParameter("steer angle must be in [0,180], got %v", a.SteerDeg)
	}
	if a.Omni {
		return nil
	}
	return a.Element.Validate()
}

// GetEJtheta returns exp(-j*degree) with the angle in degrees.
func GetEJtheta(degree float64) complex128 {
	return cmplx.Exp(complex(0.0, -degree*math.Pi/180.0))
}

// Weights are the 1/N-normalized steering weights.
func (a *ArraySetting) Weights() vlib.VectorC {
	w := vlib.NewVectorC(a.N)
	steer := math.Cos(rf.Deg2Rad(a.SteerDeg))
	for n := 0; n < a.N; n++ {
		phase := 360 * float64(n) * a.SpacingFactor * steer
		w[n] = GetEJtheta(phase) / complex(float64(a.N), 0)
	}
	return w
}

// ArrayFactor is the weighted element sum towards zenith angle thetaDeg.
func (a *ArraySetting) ArrayFactor(thetaDeg float64) complex128 {
	var sum complex128
	c := math.Cos(rf.Deg2Rad(thetaDeg))
	for n, w := range a.Weights() {
		phase := 360 * float64(n) * a.SpacingFactor * c
		sum += w * GetEJtheta(-phase)
	}
	return sum
}

// Field is the theta-polarized array field: element amplitude times array
// factor, scaled by sqrt(N) so that the peak carries the array gain.
func (a *ArraySetting) Field(thetaDeg, phiDeg float64) (eTheta, ePhi complex128) {
	elem := 1.0
	if !a.Omni {
		_, _, g := a.Element.PatternDb(thetaDeg, phiDeg)
		elem = rf.AmplitudeScale(g)
	}
	scale := complex(elem*math.Sqrt(float64(a.N)), 0)
	return scale * a.ArrayFactor(thetaDeg), 0
}

// Pattern samples the array onto a regular grid.
func (a *ArraySetting) Pattern(freqGHz, thetaStepDeg, phiStepDeg float64) (*RadiationPattern, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return Synthesize(freqGHz, thetaStepDeg, phiStepDeg, a.Field)
}
