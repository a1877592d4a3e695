package main

import (
	"encoding/json"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wiless/radarperf"
	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/sweep"
)

const scenarioJSON = `{
  "radar": {"freq_ghz": 3, "peak_power_w": 100000, "antenna_gain_dbi": 35,
            "pulse_width_s": 1e-6, "noise_figure_db": 3, "system_losses_db": 3},
  "target": {"rcs_m2": 1, "range_m": 50000, "altitude_m": 1000, "fluctuation": "swerling1"},
  "propagation": {"radar_height_m": 10}
}`

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := sweep.NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	a := radarperf.NewAnalyzer(radarperf.WithRunner(sweep.NewRunner(2, m)))
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	setupRoutes(app, newHandler(a), reg)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, b
}

func TestEvaluateEndpoint(t *testing.T) {
	app := newTestApp(t)
	code, body := post(t, app, "/api/v1/evaluate", scenarioJSON)
	if code != fiber.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var rep radarperf.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.AntennaGainDbi != 35 || rep.Detection.Pd <= 0 || rep.Detection.Pd > 1 {
		t.Errorf("report = %+v", rep)
	}
	if !rep.Loss.LineOfSight {
		t.Error("expected line of sight")
	}
}

func TestEvaluateBadInput(t *testing.T) {
	app := newTestApp(t)
	bad := strings.Replace(scenarioJSON, `"rcs_m2": 1`, `"rcs_m2": -1`, 1)
	if code, body := post(t, app, "/api/v1/evaluate", bad); code != fiber.StatusBadRequest {
		t.Errorf("status %d, want 400: %s", code, body)
	}
}

func TestLossEndpoint(t *testing.T) {
	app := newTestApp(t)
	code, body := post(t, app, "/api/v1/loss", `{"freq_ghz": 1, "dist_km": 10, "atmosphere_preset": "rainy"}`)
	if code != fiber.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var b pathloss.LossBreakdown
	if err := json.Unmarshal(body, &b); err != nil {
		t.Fatal(err)
	}
	if math.Abs(b.BasicDb-52.44) > 0.01 {
		t.Errorf("basic loss = %v, want 52.44", b.BasicDb)
	}
	if b.PrecipitationDb <= 0 {
		t.Errorf("rainy preset gave no rain loss: %+v", b)
	}

	if code, _ := post(t, app, "/api/v1/loss", `{"freq_ghz": 1, "dist_km": 10, "atmosphere_preset": "monsoon"}`); code != fiber.StatusBadRequest {
		t.Errorf("unknown preset status %d, want 400", code)
	}
}

func TestPatternEndpoint(t *testing.T) {
	app := newTestApp(t)
	req := `{"freq_ghz": 3, "spec": {"kind": "gaussian", "theta_step_deg": 2, "phi_step_deg": 10,
	  "boresight_theta_deg": 90, "beamwidth_deg": 20, "normalize": true, "peak_gain_dbi": 25}}`
	code, body := post(t, app, "/api/v1/pattern", req)
	if code != fiber.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var st antenna.PatternStatistics
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatal(err)
	}
	if math.Abs(st.MaxGainDbi-25) > 1e-6 {
		t.Errorf("max gain = %v, want 25", st.MaxGainDbi)
	}

	if code, _ := post(t, app, "/api/v1/pattern", `{"freq_ghz": 3, "spec": {"kind": "none"}}`); code != fiber.StatusBadRequest {
		t.Errorf("kind none status %d, want 400", code)
	}
}

func TestDetectionSweepEndpoint(t *testing.T) {
	app := newTestApp(t)
	code, body := post(t, app, "/api/v1/sweep/detection",
		`{"rows": {"start": 0, "stop": 20, "n": 5}, "cols": {"values": [1e-6, 1e-4]}, "pulses": 4, "model": "swerling1"}`)
	if code != fiber.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	var g struct {
		Values  [][]*float64 `json:"values"`
		RowDone []bool       `json:"row_done"`
	}
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatal(err)
	}
	if len(g.Values) != 5 || len(g.Values[0]) != 2 {
		t.Fatalf("grid shape %dx%d", len(g.Values), len(g.Values[0]))
	}
	for r, row := range g.Values {
		for c, v := range row {
			if v == nil || *v < 0 || *v > 1 {
				t.Errorf("cell (%d,%d) = %v", r, c, v)
			}
		}
	}
}

func TestRangeSweepEndpoint(t *testing.T) {
	app := newTestApp(t)
	req := `{"scenario": ` + scenarioJSON + `,
	  "rows": {"start": 1000, "stop": 100000, "n": 3, "log": true},
	  "cols": {"values": [1]}}`
	code, body := post(t, app, "/api/v1/sweep/range", req)
	if code != fiber.StatusOK {
		t.Fatalf("status %d: %s", code, body)
	}
	if !strings.Contains(string(body), `"name":"range"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestRequestLimits(t *testing.T) {
	app := newTestApp(t)
	cases := map[string][2]string{
		"huge n": {"/api/v1/sweep/detection",
			`{"rows": {"start": 0, "stop": 20, "n": 1000000000}, "cols": {"values": [1e-6]}}`},
		"too many cells": {"/api/v1/sweep/detection",
			`{"rows": {"start": 0, "stop": 20, "n": 4096}, "cols": {"start": 1e-9, "stop": 1e-3, "n": 4096, "log": true}}`},
		"fine pattern grid": {"/api/v1/pattern",
			`{"freq_ghz": 3, "spec": {"kind": "isotropic", "theta_step_deg": 0.0001, "phi_step_deg": 0.0001}}`},
	}
	for name, c := range cases {
		if code, body := post(t, app, c[0], c[1]); code != fiber.StatusBadRequest {
			t.Errorf("%s: status %d, want 400: %s", name, code, body)
		}
	}
}

func TestMetricsAndHealth(t *testing.T) {
	app := newTestApp(t)
	post(t, app, "/api/v1/sweep/detection", `{"rows": {"values": [10]}, "cols": {"values": [1e-6]}}`)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(b), `radarperf_sweep_cells_total{sweep="detection"} 1`) {
		t.Errorf("metrics missing sweep counter:\n%s", b)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("health status %d", resp.StatusCode)
	}
}
