package radarperf

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/cache"
	"github.com/wiless/radarperf/detection"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/sweep"
	"github.com/wiless/radarperf/terrain"
)

func testScenario() Scenario {
	s := NewScenario()
	s.Radar = detection.RadarParameters{
		FreqGHz:        3,
		PeakPowerW:     100e3,
		AntennaGainDbi: 35,
		PulseWidthS:    1e-6,
		PRFHz:          1000,
		NoiseFigureDb:  3,
		SystemLossesDb: 3,
	}
	s.Target = detection.TargetParameters{
		RCSM2:       1,
		Fluctuation: detection.Swerling1,
		RangeM:      50e3,
		AltitudeM:   1000,
	}
	s.RadarHeightM = 10
	return s
}

func TestEvaluateScalarGain(t *testing.T) {
	s := testScenario()
	a := NewAnalyzer()
	rep, err := a.Evaluate(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Pattern != nil {
		t.Errorf("Pattern = %+v, want nil without an antenna spec", rep.Pattern)
	}
	if rep.AntennaGainDbi != 35 {
		t.Errorf("AntennaGainDbi = %v, want 35", rep.AntennaGainDbi)
	}
	if !rep.Loss.LineOfSight {
		t.Error("expected line of sight without terrain")
	}
	wantLosses := 3 + 2*rep.Loss.AtmosphericDb
	if math.Abs(rep.LossesDb-wantLosses) > 1e-9 {
		t.Errorf("LossesDb = %v, want %v", rep.LossesDb, wantLosses)
	}
	want, err := detection.Evaluate(s.Radar, s.Target, s.Criteria, rep.LossesDb)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Compare(want, rep.Detection); diff != "" {
		t.Errorf("Detection diff (-want +got):\n%s", diff)
	}
}

func TestEvaluateExcessLossLowersSNR(t *testing.T) {
	dry := testScenario()
	wet := testScenario()
	wet.Atmosphere.RainRateMmH = 25

	a := NewAnalyzer()
	repDry, err := a.Evaluate(context.Background(), dry)
	if err != nil {
		t.Fatal(err)
	}
	repWet, err := a.Evaluate(context.Background(), wet)
	if err != nil {
		t.Fatal(err)
	}
	drop := repDry.Detection.SNRDb - repWet.Detection.SNRDb
	if want := 2 * repWet.Loss.PrecipitationDb; math.Abs(drop-want) > 1e-9 {
		t.Errorf("SNR drop = %v dB, want two-way rain loss %v dB", drop, want)
	}
	if repWet.Detection.Pd >= repDry.Detection.Pd {
		t.Errorf("Pd wet %v >= dry %v", repWet.Detection.Pd, repDry.Detection.Pd)
	}
}

func TestEvaluateValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Scenario)
	}{
		{"zero frequency", func(s *Scenario) { s.Radar.FreqGHz = 0 }},
		{"negative rcs", func(s *Scenario) { s.Target.RCSM2 = -1 }},
		{"pfa", func(s *Scenario) { s.Criteria.Pfa = 1 }},
		{"radar height", func(s *Scenario) { s.RadarHeightM = -5 }},
		{"reflection", func(s *Scenario) { s.Propagation.ReflectionCoeff = 2 }},
		{"humidity", func(s *Scenario) { s.Atmosphere.HumidityPct = 120 }},
	}
	a := NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScenario()
			tt.mut(&s)
			if _, err := a.Evaluate(context.Background(), s); !errors.Is(err, rf.ErrInvalidParameter) {
				t.Errorf("err = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func gaussianScenario() Scenario {
	s := testScenario()
	s.Antenna.Kind = antenna.KindGaussian
	s.Antenna.ThetaStepDeg = 2
	s.Antenna.PhiStepDeg = 10
	s.Antenna.BeamwidthDeg = 10
	s.Antenna.Normalize = true
	s.Antenna.PeakGainDbi = 30
	return s
}

func TestEvaluatePatternGain(t *testing.T) {
	s := gaussianScenario()
	a := NewAnalyzer()
	rep, err := a.Evaluate(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Pattern == nil {
		t.Fatal("missing pattern statistics")
	}
	if math.Abs(rep.Pattern.MaxGainDbi-30) > 0.05 {
		t.Errorf("MaxGainDbi = %v, want 30", rep.Pattern.MaxGainDbi)
	}
	// Target at 1 km altitude and 50 km range sits about 1.1 degrees above
	// the horizon, inside the 10 degree beam but off the peak.
	if rep.AntennaGainDbi > 30.05 || rep.AntennaGainDbi < 20 {
		t.Errorf("AntennaGainDbi = %v, want within the main lobe", rep.AntennaGainDbi)
	}

	if _, err := a.Evaluate(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	st := a.PatternCacheStats()
	if st.Misses != 1 || st.Hits != 1 || st.Entries != 1 {
		t.Errorf("cache stats = %+v, want 1 miss, 1 hit, 1 entry", st)
	}
}

func TestSharedPatternCache(t *testing.T) {
	c := cache.New[*antenna.RadiationPattern]("shared")
	a1 := NewAnalyzer(WithPatternCache(c))
	a2 := NewAnalyzer(WithPatternCache(c))
	s := gaussianScenario()
	if _, err := a1.Evaluate(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if _, err := a2.Evaluate(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if st := c.Stats(); st.Hits != 1 {
		t.Errorf("shared cache hits = %d, want 1", st.Hits)
	}

	// A separate analyzer starts with its own empty cache.
	a3 := NewAnalyzer()
	if _, err := a3.Evaluate(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if st := a3.PatternCacheStats(); st.Hits != 0 || st.Misses != 1 {
		t.Errorf("fresh cache stats = %+v", st)
	}
}

func TestDetectionSweep(t *testing.T) {
	snr, err := sweep.Linspace("snr_db", 0, 20, 11)
	if err != nil {
		t.Fatal(err)
	}
	pfa := sweep.Values("pfa", 1e-8, 1e-6, 1e-4)
	a := NewAnalyzer(WithRunner(sweep.NewRunner(2, nil)))
	g, err := a.DetectionSweep(context.Background(), snr, pfa, 1, detection.NonFluctuating)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Complete() || g.CellErrors != 0 {
		t.Fatalf("grid incomplete: %+v", g.RowDone)
	}
	for c := range pfa.Values {
		for r := 1; r < snr.Len(); r++ {
			if g.Values[r][c]+1e-9 < g.Values[r-1][c] {
				t.Errorf("Pd not monotonic in SNR at pfa=%v row %d", pfa.Values[c], r)
			}
		}
	}
	for r := range snr.Values {
		for c := 1; c < pfa.Len(); c++ {
			if g.Values[r][c]+1e-9 < g.Values[r][c-1] {
				t.Errorf("Pd not monotonic in Pfa at snr=%v", snr.Values[r])
			}
		}
	}

	if _, err := a.DetectionSweep(context.Background(), snr, pfa, 0, detection.Swerling1); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("pulses 0: err = %v", err)
	}
}

func TestLossSweep(t *testing.T) {
	s := testScenario()
	freqs := sweep.Values("freq_ghz", 1, 3, 10)
	rain := sweep.Values("rain_mm_h", 0, 5, 25)
	g, err := NewAnalyzer().LossSweep(context.Background(), s, freqs, rain)
	if err != nil {
		t.Fatal(err)
	}
	for r := range freqs.Values {
		for c := 1; c < rain.Len(); c++ {
			if g.Values[r][c] <= g.Values[r][c-1] {
				t.Errorf("loss not increasing with rain at %v GHz: %v", freqs.Values[r], g.Values[r])
			}
		}
	}
}

func TestRangeSweep(t *testing.T) {
	s := testScenario()
	ranges := sweep.Values("range_m", 10e3, 20e3, 40e3)
	rcs := sweep.Values("rcs_m2", 0.1, 1, 10)
	g, err := NewAnalyzer().RangeSweep(context.Background(), s, ranges, rcs)
	if err != nil {
		t.Fatal(err)
	}
	for r := range ranges.Values {
		for c := 1; c < rcs.Len(); c++ {
			if d := g.Values[r][c] - g.Values[r][c-1]; math.Abs(d-10) > 1e-9 {
				t.Errorf("10x RCS step = %v dB, want 10", d)
			}
		}
	}
	for c := range rcs.Values {
		for r := 1; r < ranges.Len(); r++ {
			// Doubling range costs at least 12 dB; excess loss adds a little.
			if d := g.Values[r-1][c] - g.Values[r][c]; d < 12.04-1e-9 {
				t.Errorf("range doubling drop = %v dB, want >= 12.04", d)
			}
		}
	}
}

func TestRangeSweepTruncatesTerrain(t *testing.T) {
	s := testScenario()
	s.Target.RangeM = 20e3
	p, err := terrain.NewProfile([]float64{0, 10e3, 20e3}, []float64{0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	s.Terrain = p
	g, err := NewAnalyzer().RangeSweep(context.Background(), s,
		sweep.Values("range_m", 5e3, 20e3, 40e3), sweep.Values("rcs_m2", 1))
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 2; r++ {
		if _, ok := g.At(r, 0); !ok {
			t.Errorf("row %d inside the profile is missing", r)
		}
	}
	if _, ok := g.At(2, 0); ok {
		t.Error("range beyond the profile should be NaN")
	}
	if g.CellErrors != 1 {
		t.Errorf("cell errors = %d, want 1", g.CellErrors)
	}
}

func TestEvaluateRejectsShortTerrain(t *testing.T) {
	s := testScenario()
	p, err := terrain.NewProfile([]float64{0, 5e3, 10e3}, []float64{0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	s.Terrain = p
	if _, err := NewAnalyzer().Evaluate(context.Background(), s); !errors.Is(err, rf.ErrInvalidGeometry) {
		t.Errorf("10 km profile on a 50 km path err = %v, want ErrInvalidGeometry", err)
	}
}

func TestRangeSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := testScenario()
	g, err := NewAnalyzer().RangeSweep(ctx, s, sweep.Values("range_m", 1e3, 2e3), sweep.Values("rcs_m2", 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if g == nil || g.Complete() {
		t.Errorf("expected a partial grid, got %+v", g)
	}
}
