package sweep

import (
	"encoding/json"
	"math"

	"github.com/wiless/radarperf/rf"
)

// Axis is one named sweep dimension.
type Axis struct {
	Name   string    `json:"name" yaml:"name"`
	Values []float64 `json:"values" yaml:"values"`
}

// MaxAxisLen bounds the number of values Linspace and Logspace generate.
const MaxAxisLen = 1 << 16

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(name string, start, stop float64, n int) (Axis, error) {
	if n < 1 || n > MaxAxisLen {
		return Axis{}, rf.InvalidParameter("axis %s needs 1 to %d values, got %d", name, MaxAxisLen, n)
	}
	if err := rf.Finite(name+" start", start); err != nil {
		return Axis{}, err
	}
	if err := rf.Finite(name+" stop", stop); err != nil {
		return Axis{}, err
	}
	a := Axis{Name: name, Values: make([]float64, n)}
	if n == 1 {
		a.Values[0] = start
		return a, nil
	}
	step := (stop - start) / float64(n-1)
	for i := range a.Values {
		a.Values[i] = start + float64(i)*step
	}
	a.Values[n-1] = stop
	return a, nil
}

// Logspace returns n values spaced evenly in log10 between start and stop,
// both > 0.
func Logspace(name string, start, stop float64, n int) (Axis, error) {
	if err := rf.Positive(name+" start", start); err != nil {
		return Axis{}, err
	}
	if err := rf.Positive(name+" stop", stop); err != nil {
		return Axis{}, err
	}
	a, err := Linspace(name, math.Log10(start), math.Log10(stop), n)
	if err != nil {
		return Axis{}, err
	}
	for i, v := range a.Values {
		a.Values[i] = math.Pow(10, v)
	}
	a.Values[0], a.Values[n-1] = start, stop
	return a, nil
}

// Values is a fixed list axis.
func Values(name string, vs ...float64) Axis {
	return Axis{Name: name, Values: append([]float64(nil), vs...)}
}

func (a Axis) Len() int { return len(a.Values) }

// Grid is the output of a sweep. Values[r][c] is NaN for a cell whose
// evaluation failed and for every cell of a row that did not complete.
type Grid struct {
	Name       string      `json:"name" yaml:"name"`
	Rows       Axis        `json:"rows" yaml:"rows"`
	Cols       Axis        `json:"cols" yaml:"cols"`
	Values     [][]float64 `json:"values" yaml:"values"`
	RowDone    []bool      `json:"row_done" yaml:"row_done"`
	CellErrors int         `json:"cell_errors" yaml:"cell_errors"`
}

func newGrid(name string, rows, cols Axis) *Grid {
	g := &Grid{
		Name:    name,
		Rows:    rows,
		Cols:    cols,
		Values:  make([][]float64, rows.Len()),
		RowDone: make([]bool, rows.Len()),
	}
	for r := range g.Values {
		g.Values[r] = make([]float64, cols.Len())
		for c := range g.Values[r] {
			g.Values[r][c] = math.NaN()
		}
	}
	return g
}

// At returns the value of cell (r, c) and whether it holds a result.
func (g *Grid) At(r, c int) (float64, bool) {
	v := g.Values[r][c]
	return v, g.RowDone[r] && !math.IsNaN(v)
}

// Complete reports whether every row finished.
func (g *Grid) Complete() bool {
	for _, done := range g.RowDone {
		if !done {
			return false
		}
	}
	return true
}

// MarshalJSON writes sentinel cells as null.
func (g *Grid) MarshalJSON() ([]byte, error) {
	type plain Grid
	out := struct {
		*plain
		Values [][]*float64 `json:"values"`
	}{plain: (*plain)(g), Values: make([][]*float64, len(g.Values))}
	for r, row := range g.Values {
		out.Values[r] = make([]*float64, len(row))
		for c := range row {
			if v := row[c]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				out.Values[r][c] = &row[c]
			}
		}
	}
	return json.Marshal(out)
}
