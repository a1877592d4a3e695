// Package pathloss computes one-way electromagnetic propagation loss between
// two points: basic spreading loss plus atmospheric, precipitation, fog and
// terrain diffraction terms.
package pathloss

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/wiless/radarperf/rf"
)

// Model is implemented by anything able to produce a full loss breakdown.
type Model interface {
	TotalLoss(req LossRequest) (LossBreakdown, error)
}

type PathLossType int

const (
	FreeSpace PathLossType = iota
	TwoRay
)

var PathLossTypes = [...]string{
	"FreeSpace",
	"TwoRay",
}

func (p PathLossType) String() string {
	if int(p) < 0 || int(p) >= len(PathLossTypes) {
		return "Unknown-PathLossType"
	}
	return PathLossTypes[p]
}

// ParsePathLossType accepts the names in PathLossTypes, case-insensitive.
func ParsePathLossType(s string) (PathLossType, error) {
	for i, name := range PathLossTypes {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return PathLossType(i), nil
		}
	}
	return FreeSpace, rf.InvalidParameter("unknown path loss type %q", s)
}

func (p PathLossType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PathLossType) UnmarshalText(b []byte) error {
	v, err := ParsePathLossType(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ModelSetting selects the basic-loss family and the optional terms used by
// TotalLoss.
type ModelSetting struct {
	Type PathLossType `json:"type" mapstructure:"type" yaml:"type"`
	// TerrainType adds a coarse terrain correction when no terrain profile is
	// supplied. TerrainUnspecified disables it.
	TerrainType TerrainType `json:"terrain_type" mapstructure:"terrain_type" yaml:"terrain_type"`
	// EarthRadiusM is the true Earth radius used for the line-of-sight bulge;
	// zero means rf.EarthRadiusM.
	EarthRadiusM float64 `json:"earth_radius_m" mapstructure:"earth_radius_m" yaml:"earth_radius_m"`
	// ReflectionCoeff in [0,1] enables the multipath interference term.
	ReflectionCoeff float64 `json:"reflection_coeff" mapstructure:"reflection_coeff" yaml:"reflection_coeff"`
}

func (m *ModelSetting) SetDefault() {
	m.Type = FreeSpace
	m.TerrainType = TerrainUnspecified
	m.EarthRadiusM = rf.EarthRadiusM
	m.ReflectionCoeff = 0
}

func NewModelSetting() *ModelSetting {
	result := new(ModelSetting)
	result.SetDefault()
	return result
}

// Set overlays a JSON document on the setting.
func (m *ModelSetting) Set(str string) error {
	if err := json.Unmarshal([]byte(str), m); err != nil {
		return errors.Wrap(err, "pathloss: decode model setting")
	}
	return m.Validate()
}

// Validate checks the setting fields.
func (m *ModelSetting) Validate() error {
	if m.Type < FreeSpace || m.Type > TwoRay {
		return rf.InvalidParameter("path loss type %d", int(m.Type))
	}
	if m.TerrainType < TerrainUnspecified || int(m.TerrainType) >= len(TerrainTypes) {
		return rf.InvalidParameter("terrain type %d", int(m.TerrainType))
	}
	if err := rf.NonNegative("earth radius", m.EarthRadiusM); err != nil {
		return err
	}
	if m.ReflectionCoeff < 0 || m.ReflectionCoeff > 1 {
		return rf.InvalidParameter("reflection coefficient must be in [0,1], got %v", m.ReflectionCoeff)
	}
	return nil
}

func (m *ModelSetting) earthRadius() float64 {
	if m.EarthRadiusM > 0 {
		return m.EarthRadiusM
	}
	return rf.EarthRadiusM
}
