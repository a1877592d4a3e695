package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/wiless/radarperf"
	"github.com/wiless/radarperf/antenna"
	"github.com/wiless/radarperf/config"
	"github.com/wiless/radarperf/detection"
	"github.com/wiless/radarperf/pathloss"
	"github.com/wiless/radarperf/rf"
	"github.com/wiless/radarperf/sweep"
)

func setupRoutes(app *fiber.App, h *handler, reg *prometheus.Registry) {
	app.Get("/health", h.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")
	{
		api.Get("/atmospheres", h.atmospheres)
		api.Post("/evaluate", h.evaluate)
		api.Post("/loss", h.loss)
		api.Post("/pattern", h.pattern)
		api.Post("/sweep/loss", h.lossSweep)
		api.Post("/sweep/detection", h.detectionSweep)
		api.Post("/sweep/range", h.rangeSweep)
	}
}

// errorHandler maps input errors to 400 and everything else to 500.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, rf.ErrInvalidParameter),
		errors.Is(err, rf.ErrInvalidGeometry),
		errors.Is(err, rf.ErrInvalidPattern):
		code = fiber.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusServiceUnavailable
	}
	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
}

type handler struct {
	analyzer *radarperf.Analyzer
}

func newHandler(a *radarperf.Analyzer) *handler {
	return &handler{analyzer: a}
}

func (h *handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "ok",
		"service":       "radard",
		"pattern_cache": h.analyzer.PatternCacheStats(),
	})
}

func (h *handler) atmospheres(c *fiber.Ctx) error {
	out := make(map[string]pathloss.Atmosphere)
	for _, name := range pathloss.AtmospherePresetNames() {
		out[name], _ = pathloss.AtmospherePreset(name)
	}
	return c.JSON(out)
}

// scenario decodes a scenario document from the body; the layout is the
// same as a radarperf config file.
func scenario(c *fiber.Ctx, body []byte) (radarperf.Scenario, error) {
	f, err := config.Parse(body, "json")
	if err != nil {
		return radarperf.Scenario{}, err
	}
	return f.Scenario(c.UserContext())
}

func (h *handler) evaluate(c *fiber.Ctx) error {
	s, err := scenario(c, c.Body())
	if err != nil {
		return err
	}
	rep, err := h.analyzer.Evaluate(c.UserContext(), s)
	if err != nil {
		return err
	}
	return c.JSON(rep)
}

type lossRequest struct {
	FreqGHz          float64               `json:"freq_ghz"`
	DistKm           float64               `json:"dist_km"`
	TxHeightM        float64               `json:"tx_height_m"`
	RxHeightM        float64               `json:"rx_height_m"`
	Model            pathloss.ModelSetting `json:"model"`
	AtmospherePreset string                `json:"atmosphere_preset"`
	// Atmosphere, when present, replaces the preset entirely.
	Atmosphere *pathloss.Atmosphere `json:"atmosphere"`
}

func (h *handler) loss(c *fiber.Ctx) error {
	req := lossRequest{Model: *pathloss.NewModelSetting(), AtmospherePreset: "standard"}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := req.Model.Validate(); err != nil {
		return err
	}
	atm, err := pathloss.AtmospherePreset(req.AtmospherePreset)
	if err != nil {
		return err
	}
	if req.Atmosphere != nil {
		atm = *req.Atmosphere
	}
	b, err := req.Model.TotalLoss(pathloss.LossRequest{
		FreqGHz: req.FreqGHz, DistKm: req.DistKm,
		TxHeightM: req.TxHeightM, RxHeightM: req.RxHeightM,
		Atmosphere: atm,
	})
	if err != nil {
		return err
	}
	return c.JSON(b)
}

type patternRequest struct {
	FreqGHz float64      `json:"freq_ghz"`
	Spec    antenna.Spec `json:"spec"`
	// Levels are the beamwidth levels in dB; empty means -3 and -10.
	Levels []float64 `json:"levels"`
}

func (h *handler) pattern(c *fiber.Ctx) error {
	req := patternRequest{Spec: antenna.DefaultSpec()}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := req.Spec.Validate(); err != nil {
		return err
	}
	if err := rf.Positive("frequency", req.FreqGHz); err != nil {
		return err
	}
	p, err := h.analyzer.Pattern(c.UserContext(), req.Spec, req.FreqGHz)
	if err != nil {
		return err
	}
	if p == nil {
		return fiber.NewError(fiber.StatusBadRequest, "antenna kind none has no pattern")
	}
	return c.JSON(p.Statistics(req.Levels...))
}

// Request limits. A sweep also stays within the runner's MaxCells.
const (
	maxBodyBytes  = 1 << 20
	maxAxisValues = 4096
)

// axisRequest is either explicit values or a linear range.
type axisRequest struct {
	Values []float64 `json:"values"`
	Start  float64   `json:"start"`
	Stop   float64   `json:"stop"`
	N      int       `json:"n"`
	Log    bool      `json:"log"`
}

func (a axisRequest) axis(name string) (sweep.Axis, error) {
	if len(a.Values) > maxAxisValues || a.N > maxAxisValues {
		return sweep.Axis{}, rf.InvalidParameter("axis %s is limited to %d values", name, maxAxisValues)
	}
	switch {
	case len(a.Values) > 0:
		return sweep.Values(name, a.Values...), nil
	case a.Log:
		return sweep.Logspace(name, a.Start, a.Stop, a.N)
	default:
		return sweep.Linspace(name, a.Start, a.Stop, a.N)
	}
}

type sweepRequest struct {
	// Scenario uses the config file layout.
	Scenario map[string]interface{}     `json:"scenario"`
	Rows     axisRequest                `json:"rows"`
	Cols     axisRequest                `json:"cols"`
	Pulses   int                        `json:"pulses"`
	Model    detection.FluctuationModel `json:"model"`
}

func (h *handler) parseSweep(c *fiber.Ctx, rowName, colName string) (sweepRequest, sweep.Axis, sweep.Axis, error) {
	var req sweepRequest
	if err := c.BodyParser(&req); err != nil {
		return req, sweep.Axis{}, sweep.Axis{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	rows, err := req.Rows.axis(rowName)
	if err != nil {
		return req, rows, sweep.Axis{}, err
	}
	cols, err := req.Cols.axis(colName)
	return req, rows, cols, err
}

func (h *handler) sweepScenario(c *fiber.Ctx, req sweepRequest) (radarperf.Scenario, error) {
	body, err := json.Marshal(req.Scenario)
	if err != nil {
		return radarperf.Scenario{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return scenario(c, body)
}

func (h *handler) lossSweep(c *fiber.Ctx) error {
	req, freqs, rain, err := h.parseSweep(c, "freq_ghz", "rain_mm_h")
	if err != nil {
		return err
	}
	s, err := h.sweepScenario(c, req)
	if err != nil {
		return err
	}
	g, err := h.analyzer.LossSweep(c.UserContext(), s, freqs, rain)
	if err != nil {
		return err
	}
	return c.JSON(g)
}

func (h *handler) detectionSweep(c *fiber.Ctx) error {
	req, snr, pfa, err := h.parseSweep(c, "snr_db", "pfa")
	if err != nil {
		return err
	}
	if req.Pulses == 0 {
		req.Pulses = 1
	}
	g, err := h.analyzer.DetectionSweep(c.UserContext(), snr, pfa, req.Pulses, req.Model)
	if err != nil {
		return err
	}
	return c.JSON(g)
}

func (h *handler) rangeSweep(c *fiber.Ctx) error {
	req, ranges, rcs, err := h.parseSweep(c, "range_m", "rcs_m2")
	if err != nil {
		return err
	}
	s, err := h.sweepScenario(c, req)
	if err != nil {
		return err
	}
	g, err := h.analyzer.RangeSweep(c.UserContext(), s, ranges, rcs)
	if err != nil {
		return err
	}
	return c.JSON(g)
}
