package radarperf

import (
	"context"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/cache"
	"github.com/wiless/radarperf/detection"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/sweep"
	"github.com/wiless/radarperf/terrain"
)

const tracerName = "github.com/wiless/radarperf"

// Analyzer evaluates scenarios. Its pattern cache belongs to the caller's
// session; two Analyzers never share state unless given the same cache.
type Analyzer struct {
	patterns *cache.Cache[*antenna.RadiationPattern]
	runner   *sweep.Runner
}

type Option func(*Analyzer)

// WithPatternCache shares c between Analyzers of one session.
func WithPatternCache(c *cache.Cache[*antenna.RadiationPattern]) Option {
	return func(a *Analyzer) { a.patterns = c }
}

// WithRunner sets the sweep runner (worker count and metrics).
func WithRunner(r *sweep.Runner) Option {
	return func(a *Analyzer) { a.runner = r }
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, o := range opts {
		o(a)
	}
	if a.patterns == nil {
		a.patterns = cache.New[*antenna.RadiationPattern]("patterns")
	}
	if a.runner == nil {
		a.runner = sweep.NewRunner(0, nil)
	}
	return a
}

// PatternCacheStats exposes the cache counters.
func (a *Analyzer) PatternCacheStats() cache.Stats {
	return a.patterns.Stats()
}

// Pattern builds (or fetches from the session cache) the pattern described
// by spec at freqGHz. It returns nil for antenna.KindNone.
func (a *Analyzer) Pattern(ctx context.Context, spec antenna.Spec, freqGHz float64) (*antenna.RadiationPattern, error) {
	if spec.Kind == antenna.KindNone {
		return nil, nil
	}
	key := cache.PatternKey(freqGHz, spec.Geometry(), spec.ResampleThetaDeg, spec.ResamplePhiDeg)
	return a.patterns.GetOrCompute(key, func() (*antenna.RadiationPattern, error) {
		log.WithFields(log.Fields{"kind": spec.Kind, "freq_ghz": freqGHz}).Debug("building antenna pattern")
		return spec.Build(ctx, freqGHz)
	})
}

// targetZenithDeg returns the zenith angle from the radar to the target.
func targetZenithDeg(s Scenario) (float64, error) {
	radar := terrain.Cartesian(0, 0, s.RadarHeightM)
	target := terrain.Cartesian(s.Target.RangeM, 0, s.Target.AltitudeM)
	el, err := terrain.ElevationAngleDeg(radar, target)
	if err != nil {
		return 0, err
	}
	return 90 - el, nil
}

// Evaluate runs the full chain: antenna gain, propagation loss, detection.
func (a *Analyzer) Evaluate(ctx context.Context, s Scenario) (Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Analyzer.Evaluate", trace.WithAttributes(
		attribute.Float64("radar.freq_ghz", s.Radar.FreqGHz),
		attribute.Float64("target.range_m", s.Target.RangeM),
	))
	defer span.End()

	if err := s.Validate(); err != nil {
		span.RecordError(err)
		return Report{}, err
	}
	var rep Report
	radar := s.Radar
	rep.AntennaGainDbi = radar.AntennaGainDbi

	p, err := a.Pattern(ctx, s.Antenna, radar.FreqGHz)
	if err != nil {
		span.RecordError(err)
		return Report{}, errors.Wrap(err, "radarperf: antenna pattern")
	}
	if p != nil {
		zenith, err := targetZenithDeg(s)
		if err != nil {
			return Report{}, err
		}
		rep.AntennaGainDbi = p.GainAt(zenith, s.Antenna.TargetAzimuthDeg)
		stats := p.Statistics()
		rep.Pattern = &stats
		radar.AntennaGainDbi = rep.AntennaGainDbi
	}

	if s.Terrain != nil && s.Terrain.Len() < 2 {
		log.WithField("samples", s.Terrain.Len()).Warn("terrain profile too short, assuming line of sight")
	}
	rep.Loss, err = s.Propagation.TotalLoss(pathloss.LossRequest{
		FreqGHz:    radar.FreqGHz,
		DistKm:     s.Target.RangeM / 1e3,
		TxHeightM:  s.RadarHeightM,
		RxHeightM:  s.Target.AltitudeM,
		Atmosphere: s.Atmosphere,
		Terrain:    s.Terrain,
	})
	if err != nil {
		span.RecordError(err)
		return Report{}, err
	}
	rep.LossesDb = radar.SystemLossesDb + 2*rep.Loss.ExcessDb()

	rep.Detection, err = detection.Evaluate(radar, s.Target, s.Criteria, rep.LossesDb)
	if err != nil {
		span.RecordError(err)
		return Report{}, err
	}
	span.SetAttributes(
		attribute.Float64("detection.snr_db", rep.Detection.SNRDb),
		attribute.Float64("detection.pd", rep.Detection.Pd),
	)
	log.WithFields(log.Fields{
		"range_m": s.Target.RangeM, "snr_db": rep.Detection.SNRDb,
		"pd": rep.Detection.Pd, "loss_db": rep.Loss.TotalDb,
	}).Debug("scenario evaluated")
	return rep, nil
}

// LossSweep tabulates one-way total path loss over frequency (GHz, rows) and
// rain rate (mm/h, columns) for the scenario's geometry.
func (a *Analyzer) LossSweep(ctx context.Context, s Scenario, freqs, rainRates sweep.Axis) (*sweep.Grid, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return a.runner.Run(ctx, "loss", freqs, rainRates, func(_ context.Context, f, rain float64) (float64, error) {
		atm := s.Atmosphere
		atm.RainRateMmH = rain
		b, err := s.Propagation.TotalLoss(pathloss.LossRequest{
			FreqGHz: f, DistKm: s.Target.RangeM / 1e3,
			TxHeightM: s.RadarHeightM, RxHeightM: s.Target.AltitudeM,
			Atmosphere: atm, Terrain: s.Terrain,
		})
		return b.TotalDb, err
	})
}

// DetectionSweep tabulates Pd over per-pulse SNR (dB, rows) and Pfa (columns).
func (a *Analyzer) DetectionSweep(ctx context.Context, snrDb, pfa sweep.Axis, pulses int, model detection.FluctuationModel) (*sweep.Grid, error) {
	if pulses < 1 {
		return nil, rf.InvalidParameter("pulse count must be >= 1, got %d", pulses)
	}
	return a.runner.Run(ctx, "detection", snrDb, pfa, func(_ context.Context, snr, p float64) (float64, error) {
		return detection.DetectionProbability(rf.InvDb(snr), p, pulses, model)
	})
}

// RangeSweep tabulates the full-chain SNR (dB) over target range (m, rows)
// and RCS (m^2, columns). Cells whose SNR underflows are NaN. A terrain
// profile is cut at each cell's range; cells beyond its end are NaN.
func (a *Analyzer) RangeSweep(ctx context.Context, s Scenario, ranges, rcs sweep.Axis) (*sweep.Grid, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return a.runner.Run(ctx, "range", ranges, rcs, func(ctx context.Context, r, sigma float64) (float64, error) {
		cell := s
		cell.Target.RangeM = r
		cell.Target.RCSM2 = sigma
		if s.Terrain.Len() >= 2 {
			cut, err := s.Terrain.Truncate(r)
			if err != nil {
				return math.NaN(), err
			}
			cell.Terrain = cut
		}
		rep, err := a.Evaluate(ctx, cell)
		if err != nil {
			return math.NaN(), err
		}
		if math.IsInf(rep.Detection.SNRDb, 0) {
			return math.NaN(), nil
		}
		return rep.Detection.SNRDb, nil
	})
}
