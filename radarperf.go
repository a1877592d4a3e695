// Package radarperf ties propagation, detection and antenna analysis together:
// a Scenario describes a radar, a target and the path between them, and an
// Analyzer turns it into a Report or a parameter sweep.
package radarperf

import (
	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/detection"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/terrain"
)

// Scenario is one fully validated radar/target/path configuration.
type Scenario struct {
	Radar       detection.RadarParameters  `json:"radar" yaml:"radar"`
	Target      detection.TargetParameters `json:"target" yaml:"target"`
	Criteria    detection.Criteria         `json:"criteria" yaml:"criteria"`
	Propagation pathloss.ModelSetting      `json:"propagation" yaml:"propagation"`
	Atmosphere  pathloss.Atmosphere        `json:"atmosphere" yaml:"atmosphere"`
	Antenna     antenna.Spec               `json:"antenna" yaml:"antenna"`
	// RadarHeightM is the antenna height above local ground; the target
	// height is Target.AltitudeM.
	RadarHeightM float64 `json:"radar_height_m" yaml:"radar_height_m"`
	// Terrain is optional; see pathloss.LossRequest.
	Terrain *terrain.Profile `json:"-" yaml:"-"`
}

// NewScenario returns a scenario with the package defaults: standard
// atmosphere, free-space propagation, no antenna pattern and the default
// detection criteria. Radar and target still need to be filled in.
func NewScenario() Scenario {
	return Scenario{
		Criteria:    detection.DefaultCriteria(),
		Propagation: *pathloss.NewModelSetting(),
		Atmosphere:  pathloss.StandardAtmosphere(),
		Antenna:     antenna.DefaultSpec(),
	}
}

// Validate checks every section once, at the boundary.
func (s Scenario) Validate() error {
	if err := s.Radar.Validate(); err != nil {
		return err
	}
	if err := s.Target.Validate(); err != nil {
		return err
	}
	if err := s.Criteria.Validate(); err != nil {
		return err
	}
	if err := s.Propagation.Validate(); err != nil {
		return err
	}
	if err := s.Atmosphere.Validate(); err != nil {
		return err
	}
	if err := s.Antenna.Validate(); err != nil {
		return err
	}
	if err := rf.NonNegative("radar height", s.RadarHeightM); err != nil {
		return err
	}
	return rf.NonNegative("target altitude", s.Target.AltitudeM)
}

// Report is the result of evaluating a Scenario.
type Report struct {
	// AntennaGainDbi is the gain used in the radar equation: the pattern gain
	// towards the target when a pattern is configured, else Radar.AntennaGainDbi.
	AntennaGainDbi float64 `json:"antenna_gain_dbi" yaml:"antenna_gain_dbi"`
	// LossesDb is system losses plus twice the one-way excess propagation loss.
	LossesDb  float64                    `json:"losses_db" yaml:"losses_db"`
	Loss      pathloss.LossBreakdown     `json:"loss" yaml:"loss"`
	Detection detection.DetectionResult  `json:"detection" yaml:"detection"`
	Pattern   *antenna.PatternStatistics `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}
