package antenna

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/wiless/radarperf/rf"
)

// Kind names a pattern generator.
type Kind int

const (
	KindNone Kind = iota
	KindIsotropic
	KindDipole
	KindGaussian
	KindSector
	KindArray
)

var Kinds = [...]string{"none", "isotropic", "dipole", "gaussian", "sector", "array"}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(Kinds) {
		return "unknown"
	}
	return Kinds[k]
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindNone, nil
	}
	for i, name := range Kinds {
		if s == name {
			return Kind(i), nil
		}
	}
	return KindNone, rf.InvalidParameter("unknown antenna kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Spec is a recipe for a sampled pattern. KindNone means no pattern; the
// radar's scalar antenna gain is used instead.
type Spec struct {
	Kind         Kind    `json:"kind" mapstructure:"kind" yaml:"kind"`
	ThetaStepDeg float64 `json:"theta_step_deg" mapstructure:"theta_step_deg" yaml:"theta_step_deg"`
	PhiStepDeg   float64 `json:"phi_step_deg" mapstructure:"phi_step_deg" yaml:"phi_step_deg"`

	BoresightThetaDeg float64 `json:"boresight_theta_deg" mapstructure:"boresight_theta_deg" yaml:"boresight_theta_deg"`
	BoresightPhiDeg   float64 `json:"boresight_phi_deg" mapstructure:"boresight_phi_deg" yaml:"boresight_phi_deg"`
	BeamwidthDeg      float64 `json:"beamwidth_deg" mapstructure:"beamwidth_deg" yaml:"beamwidth_deg"`
	Circular          bool    `json:"circular" mapstructure:"circular" yaml:"circular"`

	Sector SectorSetting `json:"sector" mapstructure:"sector" yaml:"sector"`
	Array  ArraySetting  `json:"array" mapstructure:"array" yaml:"array"`

	// Normalize rescales the synthesized pattern to PeakGainDbi.
	Normalize   bool    `json:"normalize" mapstructure:"normalize" yaml:"normalize"`
	PeakGainDbi float64 `json:"peak_gain_dbi" mapstructure:"peak_gain_dbi" yaml:"peak_gain_dbi"`

	// Non-zero resample steps interpolate the pattern onto a finer grid.
	ResampleThetaDeg float64 `json:"resample_theta_deg" mapstructure:"resample_theta_deg" yaml:"resample_theta_deg"`
	ResamplePhiDeg   float64 `json:"resample_phi_deg" mapstructure:"resample_phi_deg" yaml:"resample_phi_deg"`

	// TargetAzimuthDeg is the azimuth of the target in the pattern frame.
	TargetAzimuthDeg float64 `json:"target_azimuth_deg" mapstructure:"target_azimuth_deg" yaml:"target_azimuth_deg"`
}

func DefaultSpec() Spec {
	s := Spec{
		Kind:              KindNone,
		ThetaStepDeg:      1,
		PhiStepDeg:        5,
		BoresightThetaDeg: 90,
		BeamwidthDeg:      3,
	}
	s.Sector.SetDefault()
	s.Array.SetDefault()
	return s
}

// MaxPatternCells bounds the synthesized and resampled grids. A 0.25 degree
// grid over the full sphere fits.
const MaxPatternCells = 1 << 21

// gridCells estimates the sample count of a theta/phi grid.
func gridCells(thetaStepDeg, phiStepDeg float64) float64 {
	return (math.Floor(180/thetaStepDeg) + 1) * math.Ceil(360/phiStepDeg)
}

func (s Spec) Validate() error {
	if s.Kind < KindNone || s.Kind > KindArray {
		return rf.InvalidParameter("antenna kind %d", int(s.Kind))
	}
	if s.Kind == KindNone {
		return nil
	}
	if !(s.ThetaStepDeg > 0 && s.ThetaStepDeg <= 180) || !(s.PhiStepDeg > 0 && s.PhiStepDeg <= 360) {
		return rf.InvalidParameter("antenna sampling steps (%v, %v) out of range", s.ThetaStepDeg, s.PhiStepDeg)
	}
	if s.ResampleThetaDeg < 0 || s.ResamplePhiDeg < 0 || (s.ResampleThetaDeg > 0) != (s.ResamplePhiDeg > 0) {
		return rf.InvalidParameter("resample steps must both be set or both be zero, got (%v, %v)", s.ResampleThetaDeg, s.ResamplePhiDeg)
	}
	if n := gridCells(s.ThetaStepDeg, s.PhiStepDeg); n > MaxPatternCells {
		return rf.InvalidParameter("antenna grid of %.0f samples exceeds %d", n, MaxPatternCells)
	}
	if s.ResampleThetaDeg > 0 {
		if n := gridCells(s.ResampleThetaDeg, s.ResamplePhiDeg); n > MaxPatternCells {
			return rf.InvalidParameter("resampled antenna grid of %.0f samples exceeds %d", n, MaxPatternCells)
		}
	}
	switch s.Kind {
	case KindGaussian:
		return rf.Positive("beamwidth", s.BeamwidthDeg)
	case KindSector:
		return s.Sector.Validate()
	case KindArray:
		return s.Array.Validate()
	}
	return nil
}

// Geometry is a stable text form of everything but the resample steps, used
// for content keys.
func (s Spec) Geometry() string {
	return fmt.Sprintf("%s|%v|%v|%v|%v|%v|%v|%+v|%+v|%v|%v",
		s.Kind, s.ThetaStepDeg, s.PhiStepDeg, s.BoresightThetaDeg, s.BoresightPhiDeg,
		s.BeamwidthDeg, s.Circular, s.Sector, s.Array, s.Normalize, s.PeakGainDbi)
}

// Build synthesizes the pattern at freqGHz. It returns nil for KindNone.
func (s Spec) Build(ctx context.Context, freqGHz float64) (*RadiationPattern, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var (
		p   *RadiationPattern
		err error
	)
	switch s.Kind {
	case KindNone:
		return nil, nil
	case KindIsotropic:
		p, err = Isotropic(freqGHz, s.ThetaStepDeg, s.PhiStepDeg)
	case KindDipole:
		p, err = HalfWaveDipole(freqGHz, s.ThetaStepDeg, s.PhiStepDeg)
	case KindGaussian:
		p, err = Gaussian(freqGHz, s.ThetaStepDeg, s.PhiStepDeg, s.BoresightThetaDeg, s.BoresightPhiDeg, s.BeamwidthDeg, s.Circular)
	case KindSector:
		p, err = Sector(freqGHz, s.ThetaStepDeg, s.PhiStepDeg, s.Sector)
	case KindArray:
		p, err = s.Array.Pattern(freqGHz, s.ThetaStepDeg, s.PhiStepDeg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "antenna: build %s pattern", s.Kind)
	}
	if s.Normalize {
		if p, err = p.Normalize(s.PeakGainDbi); err != nil {
			return nil, err
		}
	}
	if s.ResampleThetaDeg > 0 {
		if p, err = p.InterpolateContext(ctx, s.ResampleThetaDeg, s.ResamplePhiDeg); err != nil {
			return nil, err
		}
	}
	return p, nil
}
