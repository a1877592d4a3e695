// Package config loads scenario files (YAML, JSON or TOML) through viper and
// turns each section into a validated record.
package config

import (
	"bytes"
	"context"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/wiless/radarperf"
	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/cache"
	"github.com/wiless/radarperf/detection"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/sweep"
	"github.com/wiless/radarperf/telemetry"
	"github.com/wiless/radarperf/terrain"
)

// EnvPrefix is prepended to environment overrides, e.g.
// RADARPERF_RADAR_FREQ_GHZ=9.4.
const EnvPrefix = "RADARPERF"

// File mirrors the layout of a scenario file.
type File struct {
	Radar       detection.RadarParameters  `mapstructure:"radar"`
	Target      detection.TargetParameters `mapstructure:"target"`
	Detection   detection.Criteria         `mapstructure:"detection"`
	Propagation Propagation                `mapstructure:"propagation"`
	Antenna     antenna.Spec               `mapstructure:"antenna"`
	Sweep       Sweep                      `mapstructure:"sweep"`
	Log         Log                        `mapstructure:"log"`
	Server      Server                     `mapstructure:"server"`
	Tracing     telemetry.Config           `mapstructure:"tracing"`
}

// Propagation holds the path-loss model plus the weather and terrain along
// the path. The model fields sit directly under "propagation".
type Propagation struct {
	Model pathloss.ModelSetting `mapstructure:",squash"`
	// AtmospherePreset names the base weather; Atmosphere overrides single fields.
	AtmospherePreset string             `mapstructure:"atmosphere_preset"`
	Atmosphere       AtmosphereOverride `mapstructure:"atmosphere"`
	RadarHeightM     float64            `mapstructure:"radar_height_m"`
	Terrain          Terrain            `mapstructure:"terrain"`
}

// AtmosphereOverride replaces the preset value of every non-nil field.
type AtmosphereOverride struct {
	TemperatureC    *float64 `mapstructure:"temperature_c"`
	HumidityPct     *float64 `mapstructure:"humidity_pct"`
	PressureHPa     *float64 `mapstructure:"pressure_hpa"`
	RainRateMmH     *float64 `mapstructure:"rain_rate_mm_h"`
	FogVisibilityKm *float64 `mapstructure:"fog_visibility_km"`
}

func (o AtmosphereOverride) apply(a pathloss.Atmosphere) pathloss.Atmosphere {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.TemperatureC, o.TemperatureC)
	set(&a.HumidityPct, o.HumidityPct)
	set(&a.PressureHPa, o.PressureHPa)
	set(&a.RainRateMmH, o.RainRateMmH)
	set(&a.FogVisibilityKm, o.FogVisibilityKm)
	return a
}

// Terrain is either an explicit profile (distances and elevations) or two
// geodetic end points sampled against a flat elevation model.
type Terrain struct {
	DistancesM     []float64 `mapstructure:"distances_m"`
	ElevationsM    []float64 `mapstructure:"elevations_m"`
	From           *GeoPoint `mapstructure:"from"`
	To             *GeoPoint `mapstructure:"to"`
	Samples        int       `mapstructure:"samples"`
	FlatElevationM float64   `mapstructure:"flat_elevation_m"`
}

type GeoPoint struct {
	Lat  float64 `mapstructure:"lat"`
	Lon  float64 `mapstructure:"lon"`
	AltM float64 `mapstructure:"alt_m"`
}

func (g GeoPoint) point() terrain.Point {
	return terrain.Geodetic(g.Lat, g.Lon, g.AltM)
}

type Sweep struct {
	// Workers <= 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
	// MaxCells caps rows x columns of one sweep.
	MaxCells int `mapstructure:"max_cells"`
}

// Runner returns a sweep runner with these limits.
func (s Sweep) Runner(metrics *sweep.Metrics) *sweep.Runner {
	r := sweep.NewRunner(s.Workers, metrics)
	if s.MaxCells > 0 {
		r.MaxCells = s.MaxCells
	}
	return r
}

type Server struct {
	Addr string `mapstructure:"addr"`
	// PatternCacheSize is the number of antenna patterns kept per process.
	PatternCacheSize int `mapstructure:"pattern_cache_size"`
}

// Default returns the values used for every key a file leaves out.
func Default() File {
	f := File{
		Detection: detection.DefaultCriteria(),
		Antenna:   antenna.DefaultSpec(),
		Log:       Log{Level: "info", Format: "text"},
		Sweep:     Sweep{MaxCells: sweep.DefaultMaxCells},
		Server:    Server{Addr: ":8080", PatternCacheSize: cache.DefaultCapacity},
		Tracing:   telemetry.Config{ServiceName: "radarperf", Exporter: "stdout", SampleRatio: 1},
	}
	f.Propagation.Model.SetDefault()
	f.Propagation.AtmospherePreset = "standard"
	f.Propagation.Terrain.Samples = 64
	return f
}

// setDefaults registers the scalar defaults with viper so that environment
// overrides resolve for keys missing from the file.
func setDefaults(v *viper.Viper) {
	d := Default()
	defaults := map[string]interface{}{
		"radar.freq_ghz":                0.0,
		"radar.peak_power_w":            0.0,
		"radar.antenna_gain_dbi":        0.0,
		"radar.pulse_width_s":           0.0,
		"radar.prf_hz":                  0.0,
		"radar.bandwidth_hz":            0.0,
		"radar.noise_figure_db":         0.0,
		"radar.system_losses_db":        0.0,
		"target.rcs_m2":                 0.0,
		"target.fluctuation":            detection.NonFluctuating.String(),
		"target.range_m":                0.0,
		"target.radial_velocity_m_s":    0.0,
		"target.altitude_m":             0.0,
		"detection.pfa":                 d.Detection.Pfa,
		"detection.pulses":              d.Detection.Pulses,
		"detection.min_snr_db":          d.Detection.MinSNRDb,
		"propagation.type":              d.Propagation.Model.Type.String(),
		"propagation.terrain_type":      d.Propagation.Model.TerrainType.String(),
		"propagation.earth_radius_m":    d.Propagation.Model.EarthRadiusM,
		"propagation.reflection_coeff":  d.Propagation.Model.ReflectionCoeff,
		"propagation.atmosphere_preset": d.Propagation.AtmospherePreset,
		"propagation.radar_height_m":    0.0,
		"propagation.terrain.samples":   d.Propagation.Terrain.Samples,
		"antenna.kind":                  d.Antenna.Kind.String(),
		"antenna.target_azimuth_deg":    0.0,
		"sweep.workers":                 0,
		"sweep.max_cells":               d.Sweep.MaxCells,
		"log.level":                     d.Log.Level,
		"log.format":                    d.Log.Format,
		"server.addr":                   d.Server.Addr,
		"server.pattern_cache_size":     d.Server.PatternCacheSize,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path, or searches "radarperf.{yaml,json,toml}" in the working
// directory and /etc/radarperf when path is empty. A missing file in search
// mode is not an error: defaults and environment overrides still apply.
func Load(path string) (*File, error) {
	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config: %s", path)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("radarperf")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/radarperf")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "config: read")
		}
		log.Warn("no radarperf config file found, using defaults")
	} else {
		log.WithField("file", v.ConfigFileUsed()).Info("loaded config")
	}
	return decode(v)
}

// Parse reads a document of the given type ("yaml", "json" or "toml").
func Parse(data []byte, configType string) (*File, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	return decode(v)
}

func decode(v *viper.Viper) (*File, error) {
	f := Default()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&f, hook); err != nil {
		return nil, errors.Wrap(rf.InvalidParameter("%v", err), "config: decode")
	}
	return &f, nil
}

// ResolveAtmosphere resolves the preset and applies the overrides.
func (p Propagation) ResolveAtmosphere() (pathloss.Atmosphere, error) {
	name := p.AtmospherePreset
	if name == "" {
		name = "standard"
	}
	a, err := pathloss.AtmospherePreset(name)
	if err != nil {
		return pathloss.Atmosphere{}, err
	}
	a = p.Atmosphere.apply(a)
	return a, a.Validate()
}

// Profile builds the terrain profile, or returns nil when none is configured.
func (t Terrain) Profile(ctx context.Context) (*terrain.Profile, error) {
	switch {
	case len(t.DistancesM) > 0 || len(t.ElevationsM) > 0:
		return terrain.NewProfile(t.DistancesM, t.ElevationsM)
	case t.From != nil && t.To != nil:
		return terrain.BuildProfile(ctx, terrain.Flat(t.FlatElevationM), t.From.point(), t.To.point(), t.Samples)
	case t.From != nil || t.To != nil:
		return nil, rf.InvalidGeometry("terrain needs both from and to end points")
	}
	return nil, nil
}

// Scenario converts the file into a validated radarperf.Scenario. A target
// range of zero is taken from the terrain end points when they are given.
func (f *File) Scenario(ctx context.Context) (radarperf.Scenario, error) {
	s := radarperf.Scenario{
		Radar:        f.Radar,
		Target:       f.Target,
		Criteria:     f.Detection,
		Propagation:  f.Propagation.Model,
		Antenna:      f.Antenna,
		RadarHeightM: f.Propagation.RadarHeightM,
	}
	atm, err := f.Propagation.ResolveAtmosphere()
	if err != nil {
		return s, errors.Wrap(err, "config: atmosphere")
	}
	s.Atmosphere = atm

	t := f.Propagation.Terrain
	s.Terrain, err = t.Profile(ctx)
	if err != nil {
		return s, errors.Wrap(err, "config: terrain")
	}
	if s.Target.RangeM == 0 && t.From != nil && t.To != nil {
		s.Target.RangeM, err = terrain.GroundRangeM(t.From.point(), t.To.point())
		if err != nil {
			return s, err
		}
	}
	if err := s.Validate(); err != nil {
		return s, errors.Wrap(err, "config: scenario")
	}
	log.WithFields(log.Fields{
		"freq_ghz": s.Radar.FreqGHz, "range_m": s.Target.RangeM,
		"model": s.Propagation.Type, "antenna": s.Antenna.Kind,
	}).Debug("scenario ready")
	return s, nil
}
