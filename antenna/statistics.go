package antenna

import (
	"math"
)

// DefaultBeamwidthLevels are used by Statistics when no levels are given.
var DefaultBeamwidthLevels = []float64{-3, -10}

// BeamwidthAt holds the principal-plane beamwidths at one level below peak.
type BeamwidthAt struct {
	LevelDb   float64 `json:"level_db" yaml:"level_db"`
	EPlaneDeg float64 `json:"e_plane_deg" yaml:"e_plane_deg"`
	HPlaneDeg float64 `json:"h_plane_deg" yaml:"h_plane_deg"`
}

// PatternStatistics summarizes a pattern. The E-plane is the elevation cut
// and the H-plane the azimuth cut through the peak. Sidelobe levels are nil
// when no sample lies outside the main-lobe window.
type PatternStatistics struct {
	MaxGainDbi         float64       `json:"max_gain_dbi" yaml:"max_gain_dbi"`
	MaxThetaDeg        float64       `json:"max_theta_deg" yaml:"max_theta_deg"`
	MaxPhiDeg          float64       `json:"max_phi_deg" yaml:"max_phi_deg"`
	PeakDirectivityDbi float64       `json:"peak_directivity_dbi" yaml:"peak_directivity_dbi"`
	AxialRatioAtPeakDb float64       `json:"axial_ratio_at_peak_db" yaml:"axial_ratio_at_peak_db"`
	Beamwidths         []BeamwidthAt `json:"beamwidths" yaml:"beamwidths"`
	EPlaneSidelobeDb   *float64      `json:"e_plane_sidelobe_db,omitempty" yaml:"e_plane_sidelobe_db,omitempty"`
	HPlaneSidelobeDb   *float64      `json:"h_plane_sidelobe_db,omitempty" yaml:"h_plane_sidelobe_db,omitempty"`
	FrontToBackDb      float64       `json:"front_to_back_db" yaml:"front_to_back_db"`
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// Statistics computes the summary at the given beamwidth levels (dB below
// peak, e.g. -3).
func (p *RadiationPattern) Statistics(levels ...float64) PatternStatistics {
	if len(levels) == 0 {
		levels = DefaultBeamwidthLevels
	}
	g, th, ph := p.MaxGain()
	ePlane := p.Slice(Elevation, ph, Total)
	hPlane := p.Slice(Azimuth, th, Total)
	st := PatternStatistics{
		MaxGainDbi:         g,
		MaxThetaDeg:        th,
		MaxPhiDeg:          ph,
		PeakDirectivityDbi: p.DirectivityAt(th, ph),
		AxialRatioAtPeakDb: p.AxialRatioAt(th, ph),
		EPlaneSidelobeDb:   finiteOrNil(ePlane.SidelobeLevel()),
		HPlaneSidelobeDb:   finiteOrNil(hPlane.SidelobeLevel()),
		FrontToBackDb:      p.FrontToBackRatio(),
	}
	for _, l := range levels {
		st.Beamwidths = append(st.Beamwidths, BeamwidthAt{
			LevelDb:   l,
			EPlaneDeg: ePlane.Beamwidth(l),
			HPlaneDeg: hPlane.Beamwidth(l),
		})
	}
	return st
}

// Beamwidth is the beamwidth of the total-gain cut in plane at fixedDeg.
func (p *RadiationPattern) Beamwidth(plane Plane, fixedDeg, levelDb float64) float64 {
	return p.Slice(plane, fixedDeg, Total).Beamwidth(levelDb)
}

// SidelobeLevel is the sidelobe level of the total-gain cut in plane at fixedDeg.
func (p *RadiationPattern) SidelobeLevel(plane Plane, fixedDeg float64) float64 {
	return p.Slice(plane, fixedDeg, Total).SidelobeLevel()
}

// FrontToBackRatio compares the peak gain with the nearest sample in the
// opposite direction (180-theta, phi+180).
func (p *RadiationPattern) FrontToBackRatio() float64 {
	g, th, ph := p.MaxGain()
	return g - p.GainAt(180-th, ph+180)
}
