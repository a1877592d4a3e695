package config

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/cache"
	"github.com/wiless/radarperf/detection"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/sweep"
)

const scenarioYAML = `
radar:
  freq_ghz: 3
  peak_power_w: 100000
  antenna_gain_dbi: 35
  pulse_width_s: 1.0e-6
  prf_hz: 1000
  noise_figure_db: 3
  system_losses_db: 3
target:
  rcs_m2: 1
  fluctuation: Swerling I
  range_m: 50000
  altitude_m: 1000
detection:
  pfa: 1.0e-6
  pulses: 10
propagation:
  type: TwoRay
  terrain_type: rolling_hills
  atmosphere_preset: rainy
  atmosphere:
    rain_rate_mm_h: 5
  radar_height_m: 10
antenna:
  kind: gaussian
  beamwidth_deg: 10
sweep:
  workers: 4
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	f, err := Load(writeFile(t, "scenario.yaml", scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if f.Target.Fluctuation != detection.Swerling1 {
		t.Errorf("fluctuation = %v, want Swerling1", f.Target.Fluctuation)
	}
	if f.Propagation.Model.Type != pathloss.TwoRay {
		t.Errorf("model = %v, want TwoRay", f.Propagation.Model.Type)
	}
	if f.Propagation.Model.TerrainType != pathloss.RollingHills {
		t.Errorf("terrain type = %v", f.Propagation.Model.TerrainType)
	}
	if f.Antenna.Kind != antenna.KindGaussian || f.Antenna.BeamwidthDeg != 10 {
		t.Errorf("antenna = %+v", f.Antenna)
	}
	// Keys absent from the file keep their defaults.
	if f.Detection.MinSNRDb != 12 || f.Antenna.PhiStepDeg != 5 || f.Log.Level != "info" {
		t.Errorf("defaults lost: min snr %v, phi step %v, log %q", f.Detection.MinSNRDb, f.Antenna.PhiStepDeg, f.Log.Level)
	}
	if f.Sweep.Workers != 4 {
		t.Errorf("workers = %d", f.Sweep.Workers)
	}

	s, err := f.Scenario(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rainy, _ := pathloss.AtmospherePreset("rainy")
	want := rainy
	want.RainRateMmH = 5
	if s.Atmosphere != want {
		t.Errorf("atmosphere = %+v, want %+v", s.Atmosphere, want)
	}
	if s.RadarHeightM != 10 || s.Terrain != nil {
		t.Errorf("radar height %v, terrain %v", s.RadarHeightM, s.Terrain)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RADARPERF_RADAR_FREQ_GHZ", "9.4")
	t.Setenv("RADARPERF_TARGET_FLUCTUATION", "swerling3")
	f, err := Load(writeFile(t, "scenario.yaml", scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if f.Radar.FreqGHz != 9.4 {
		t.Errorf("freq = %v, want 9.4 from the environment", f.Radar.FreqGHz)
	}
	if f.Target.Fluctuation != detection.Swerling3 {
		t.Errorf("fluctuation = %v, want Swerling3", f.Target.Fluctuation)
	}
}

func TestParseJSONTerrainProfile(t *testing.T) {
	doc := `{
	  "radar": {"freq_ghz": 1, "peak_power_w": 1000, "pulse_width_s": 1e-6},
	  "target": {"rcs_m2": 1, "range_m": 10000, "altitude_m": 10},
	  "propagation": {
	    "radar_height_m": 10,
	    "terrain": {"distances_m": [0, 5000, 10000], "elevations_m": [0, 100, 0]}
	  }
	}`
	f, err := Parse([]byte(doc), "json")
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Scenario(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Terrain.Len() != 3 {
		t.Fatalf("terrain samples = %d, want 3", s.Terrain.Len())
	}
	if d, e := s.Terrain.MaxObstacle(); d != 5000 || e != 100 {
		t.Errorf("obstacle = (%v, %v)", d, e)
	}
}

func TestTerrainEndPoints(t *testing.T) {
	doc := `
radar: {freq_ghz: 1, peak_power_w: 1000, pulse_width_s: 1.0e-6}
target: {rcs_m2: 1, altitude_m: 100}
propagation:
  terrain:
    from: {lat: 0, lon: 0}
    to: {lat: 0, lon: 0.1}
    samples: 11
    flat_elevation_m: 20
`
	f, err := Parse([]byte(doc), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Scenario(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Terrain.Len() != 11 {
		t.Errorf("samples = %d", s.Terrain.Len())
	}
	// 0.1 degree of longitude on the equator is about 11.1 km.
	if math.Abs(s.Target.RangeM-11.1e3) > 100 {
		t.Errorf("range derived from end points = %v", s.Target.RangeM)
	}
	if math.Abs(s.Terrain.TotalDistanceM()-s.Target.RangeM) > 1e-6 {
		t.Errorf("profile length %v != range %v", s.Terrain.TotalDistanceM(), s.Target.RangeM)
	}
}

func TestServiceLimits(t *testing.T) {
	d := Default()
	if d.Server.PatternCacheSize != cache.DefaultCapacity {
		t.Errorf("default pattern cache size = %d", d.Server.PatternCacheSize)
	}
	if r := d.Sweep.Runner(nil); r.MaxCells != sweep.DefaultMaxCells {
		t.Errorf("default runner max cells = %d", r.MaxCells)
	}
	f, err := Parse([]byte("sweep: {workers: 2, max_cells: 100}\nserver: {pattern_cache_size: 8}\n"), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	r := f.Sweep.Runner(nil)
	if r.Workers != 2 || r.MaxCells != 100 || f.Server.PatternCacheSize != 8 {
		t.Errorf("runner %+v, cache size %d", r, f.Server.PatternCacheSize)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"fluctuation", "target: {fluctuation: swerling5}"},
		{"path loss type", "propagation: {type: hata}"},
		{"antenna kind", "antenna: {kind: horn}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc), "yaml"); !errors.Is(err, rf.ErrInvalidParameter) {
				t.Errorf("err = %v, want ErrInvalidParameter", err)
			}
		})
	}

	f, err := Parse([]byte(scenarioYAML+"\n"), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	f.Propagation.AtmospherePreset = "monsoon"
	if _, err := f.Scenario(context.Background()); !errors.Is(err, rf.ErrInvalidParameter) {
		t.Errorf("unknown preset: err = %v", err)
	}
	f.Propagation.AtmospherePreset = ""
	f.Propagation.Terrain.From = &GeoPoint{}
	if _, err := f.Scenario(context.Background()); !errors.Is(err, rf.ErrInvalidGeometry) {
		t.Errorf("half terrain: err = %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit file")
	}
}

func TestLogApply(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	if err := (Log{Level: "debug", Format: "json"}).Apply(); err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v", log.GetLevel())
	}
	if err := (Log{Level: "loud"}).Apply(); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if err := (Log{Level: "info", Format: "xml"}).Apply(); err == nil {
		t.Error("expected an error for an unknown format")
	}
	log.SetFormatter(&log.TextFormatter{})
}
