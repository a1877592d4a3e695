package pathloss

import (
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/terrain"
)

// LossRequest describes one propagation path.
type LossRequest struct {
	FreqGHz    float64
	DistKm     float64
	TxHeightM  float64
	RxHeightM  float64
	Atmosphere Atmosphere
	// Terrain is optional; nil or fewer than two samples means a smooth path
	// with line of sight. A longer profile must span DistKm to within
	// terrainLengthTolerance.
	Terrain *terrain.Profile
}

const terrainLengthTolerance = 0.01

// LossBreakdown reports every loss term in dB. TotalDb is the sum of the
// monotonic terms; MultipathDb is informational and never folded in.
type LossBreakdown struct {
	Model           string  `json:"model" yaml:"model"`
	BasicDb         float64 `json:"basic_db" yaml:"basic_db"`
	AtmosphericDb   float64 `json:"atmospheric_db" yaml:"atmospheric_db"`
	PrecipitationDb float64 `json:"precipitation_db" yaml:"precipitation_db"`
	FogDb           float64 `json:"fog_db" yaml:"fog_db"`
	DiffractionDb   float64 `json:"diffraction_db" yaml:"diffraction_db"`
	TerrainDb       float64 `json:"terrain_db" yaml:"terrain_db"`
	LineOfSight     bool    `json:"line_of_sight" yaml:"line_of_sight"`
	MultipathDb     float64 `json:"multipath_db" yaml:"multipath_db"`
	TotalDb         float64 `json:"total_db" yaml:"total_db"`
}

// ExcessDb is the loss beyond basic spreading loss.
func (b LossBreakdown) ExcessDb() float64 {
	return b.TotalDb - b.BasicDb
}

func (r LossRequest) validate(m *ModelSetting) error {
	if err := rf.Positive("frequency", r.FreqGHz); err != nil {
		return err
	}
	if err := rf.Positive("distance", r.DistKm); err != nil {
		return err
	}
	if m.Type == TwoRay {
		if err := rf.Positive("tx height", r.TxHeightM); err != nil {
			return errors.Wrap(err, "two-ray model")
		}
		if err := rf.Positive("rx height", r.RxHeightM); err != nil {
			return errors.Wrap(err, "two-ray model")
		}
	} else {
		if err := rf.NonNegative("tx height", r.TxHeightM); err != nil {
			return err
		}
		if err := rf.NonNegative("rx height", r.RxHeightM); err != nil {
			return err
		}
	}
	if r.Terrain.Len() >= 2 {
		want := r.DistKm * 1e3
		tol := math.Max(1, terrainLengthTolerance*want)
		if got := r.Terrain.TotalDistanceM(); math.Abs(got-want) > tol {
			return rf.InvalidGeometry("terrain profile spans %.0f m but path is %.0f m", got, want)
		}
	}
	return r.Atmosphere.Validate()
}

// TotalLoss evaluates the path with the default free-space setting.
func TotalLoss(req LossRequest) (LossBreakdown, error) {
	return NewModelSetting().TotalLoss(req)
}

// TotalLoss sums basic, atmospheric, precipitation and fog loss, adds knife
// edge diffraction when the terrain blocks the sightline, and applies the
// terrain class correction when no profile is supplied.
func (m *ModelSetting) TotalLoss(req LossRequest) (LossBreakdown, error) {
	if err := m.Validate(); err != nil {
		return LossBreakdown{}, err
	}
	if err := req.validate(m); err != nil {
		return LossBreakdown{}, err
	}
	var b LossBreakdown
	b.Model = m.Type.String()
	switch m.Type {
	case TwoRay:
		b.BasicDb = twoRayLoss(req.FreqGHz, req.DistKm, req.TxHeightM, req.RxHeightM)
	default:
		b.BasicDb = freeSpaceLoss(req.FreqGHz, req.DistKm)
	}
	b.AtmosphericDb = atmosphericAbsorption(req.FreqGHz, req.DistKm, req.Atmosphere)
	b.PrecipitationDb = precipitationAttenuation(req.FreqGHz, req.DistKm, req.Atmosphere.RainRateMmH)
	b.FogDb = fogAttenuation(req.DistKm, req.Atmosphere.FogVisibilityKm)

	b.LineOfSight = LineOfSight(req.Terrain, req.TxHeightM, req.RxHeightM, m.earthRadius())
	if !b.LineOfSight {
		b.DiffractionDb = diffractionLoss(req.Terrain, req.FreqGHz, req.TxHeightM, req.RxHeightM, m.earthRadius())
	}
	if req.Terrain.Len() < 2 {
		b.TerrainDb = TerrainCorrection(m.TerrainType)
	}
	if m.ReflectionCoeff > 0 && req.TxHeightM > 0 && req.RxHeightM > 0 {
		b.MultipathDb = multipathFading(req.DistKm, req.FreqGHz, m.ReflectionCoeff, req.TxHeightM, req.RxHeightM)
	}
	b.TotalDb = b.BasicDb + b.AtmosphericDb + b.PrecipitationDb + b.FogDb + b.DiffractionDb + b.TerrainDb

	log.WithFields(log.Fields{
		"model": b.Model, "freq_ghz": req.FreqGHz, "dist_km": req.DistKm,
		"los": b.LineOfSight, "total_db": b.TotalDb,
	}).Debug("pathloss: evaluated path")
	return b, nil
}
