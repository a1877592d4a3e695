package sweep

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors updated by Runner.
type Metrics struct {
	Cells         *prometheus.CounterVec
	CellErrors    *prometheus.CounterVec
	RowsCancelled *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
}

// NewMetrics registers the sweep metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice on one registry
// returns the collectors already there.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cells, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radarperf_sweep_cells_total",
		Help: "Sweep cells evaluated, labeled by sweep name.",
	}, []string{"sweep"}), "radarperf_sweep_cells_total")
	if err != nil {
		return nil, err
	}
	cellErrors, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radarperf_sweep_cell_errors_total",
		Help: "Sweep cells that produced a NaN sentinel, labeled by sweep name.",
	}, []string{"sweep"}), "radarperf_sweep_cell_errors_total")
	if err != nil {
		return nil, err
	}
	cancelled, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radarperf_sweep_rows_cancelled_total",
		Help: "Sweep rows abandoned because the run was cancelled.",
	}, []string{"sweep"}), "radarperf_sweep_rows_cancelled_total")
	if err != nil {
		return nil, err
	}
	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radarperf_sweep_duration_seconds",
		Help:    "Wall time of a sweep run in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"sweep"}), "radarperf_sweep_duration_seconds")
	if err != nil {
		return nil, err
	}
	return &Metrics{Cells: cells, CellErrors: cellErrors, RowsCancelled: cancelled, Duration: duration}, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, errors.Wrapf(err, "register %s", name)
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, errors.Wrapf(err, "register %s", name)
	}
	return vec, nil
}
