// Package sweep evaluates a pure function over a two-dimensional parameter
// grid. Rows fan out over a bounded worker pool and write into disjoint rows
// of a pre-sized grid; a failing cell records NaN instead of aborting the run.
package sweep

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wiless/radarperf/rf"
)

const tracerName = "github.com/wiless/radarperf/sweep"

// CellFunc evaluates one cell. x is the row axis value and y the column axis
// value.
type CellFunc func(ctx context.Context, x, y float64) (float64, error)

// DefaultMaxCells is the grid size limit of a Runner with MaxCells unset.
const DefaultMaxCells = 1 << 20

// Runner runs sweeps with at most Workers rows in flight. Grids larger than
// MaxCells are rejected before any cell is evaluated.
type Runner struct {
	Workers  int
	MaxCells int
	Metrics  *Metrics
}

// NewRunner returns a Runner; workers <= 0 selects GOMAXPROCS. metrics may be nil.
func NewRunner(workers int, metrics *Metrics) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{Workers: workers, MaxCells: DefaultMaxCells, Metrics: metrics}
}

// Run evaluates fn over rows x cols. Cancellation is row-granular: rows that
// finished before ctx was cancelled keep their values and RowDone flag, rows
// in flight are discarded. On cancellation Run returns the partial grid
// together with ctx.Err().
func (r *Runner) Run(ctx context.Context, name string, rows, cols Axis, fn CellFunc) (*Grid, error) {
	if rows.Len() == 0 || cols.Len() == 0 {
		return nil, rf.InvalidParameter("sweep %s has an empty axis (%d x %d)", name, rows.Len(), cols.Len())
	}
	if limit := r.maxCells(); rows.Len() > limit/cols.Len() {
		return nil, rf.InvalidParameter("sweep %s grid %d x %d exceeds %d cells", name, rows.Len(), cols.Len(), limit)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sweep.Run", trace.WithAttributes(
		attribute.String("sweep.name", name),
		attribute.Int("sweep.rows", rows.Len()),
		attribute.Int("sweep.cols", cols.Len()),
	))
	defer span.End()

	start := time.Now()
	grid := newGrid(name, rows, cols)
	var cellErrors, cancelledRows int64

	var g errgroup.Group
	g.SetLimit(r.workers())
	for ri := range rows.Values {
		if ctx.Err() != nil {
			atomic.AddInt64(&cancelledRows, int64(rows.Len()-ri))
			break
		}
		ri := ri
		g.Go(func() error {
			buf, errs, ok := evaluateRow(ctx, rows.Values[ri], cols.Values, fn)
			if !ok {
				atomic.AddInt64(&cancelledRows, 1)
				return nil
			}
			copy(grid.Values[ri], buf)
			grid.RowDone[ri] = true
			atomic.AddInt64(&cellErrors, int64(errs))
			return nil
		})
	}
	g.Wait()

	grid.CellErrors = int(atomic.LoadInt64(&cellErrors))
	r.observe(name, grid, atomic.LoadInt64(&cancelledRows), time.Since(start))
	span.SetAttributes(attribute.Int("sweep.cell_errors", grid.CellErrors))

	fields := log.Fields{
		"sweep": name, "rows": rows.Len(), "cols": cols.Len(),
		"cell_errors": grid.CellErrors, "elapsed": time.Since(start),
	}
	if err := ctx.Err(); err != nil {
		fields["rows_cancelled"] = cancelledRows
		log.WithFields(fields).Warn("sweep cancelled")
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return grid, err
	}
	log.WithFields(fields).Info("sweep finished")
	return grid, nil
}

func (r *Runner) maxCells() int {
	if r == nil || r.MaxCells <= 0 {
		return DefaultMaxCells
	}
	return r.MaxCells
}

func (r *Runner) workers() int {
	if r == nil || r.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return r.Workers
}

// evaluateRow fills a private buffer so that an abandoned row never leaves
// partial values in the grid.
func evaluateRow(ctx context.Context, x float64, ys []float64, fn CellFunc) (buf []float64, errs int, ok bool) {
	buf = make([]float64, len(ys))
	for c, y := range ys {
		if ctx.Err() != nil {
			return nil, 0, false
		}
		v, err := fn(ctx, x, y)
		if err != nil || math.IsNaN(v) {
			if err != nil {
				log.WithFields(log.Fields{"x": x, "y": y}).WithError(err).Debug("sweep cell sentinel")
			}
			buf[c] = math.NaN()
			errs++
			continue
		}
		buf[c] = v
	}
	return buf, errs, true
}

func (r *Runner) observe(name string, g *Grid, cancelledRows int64, elapsed time.Duration) {
	if r == nil || r.Metrics == nil {
		return
	}
	done := 0
	for _, ok := range g.RowDone {
		if ok {
			done++
		}
	}
	m := r.Metrics
	m.Cells.WithLabelValues(name).Add(float64(done * g.Cols.Len()))
	m.CellErrors.WithLabelValues(name).Add(float64(g.CellErrors))
	m.RowsCancelled.WithLabelValues(name).Add(float64(cancelledRows))
	m.Duration.WithLabelValues(name).Observe(elapsed.Seconds())
}
