package plateau

import (
	"encoding/json"
	"math"

	"github.com/sawpanic/plateau/internal/sweep"
)

// MatrixRequest describes one performance-surface slice: a strategy, two
// free axes, the remaining fixed parameters and the metric to surface.
// Empty axis domains are filled from the values observed under the fixed
// assignment. Extract overrides how a metric is pulled from a record;
// the default reads the record's flat metrics mapping.
type MatrixRequest struct {
	Strategy string            `json:"strategy"`
	XAxis    string            `json:"x_axis"`
	YAxis    string            `json:"y_axis"`
	XValues  []string          `json:"x_values,omitempty"`
	YValues  []string          `json:"y_values,omitempty"`
	Fixed    map[string]string `json:"fixed,omitempty"`
	Metric   string            `json:"metric"`

	Extract func(rec sweep.Record, metric string) (float64, bool) `json:"-"`
}

// MatrixDiagnostics is the non-fatal side channel of a matrix build.
type MatrixDiagnostics struct {
	// MissingCells counts grid points the sweep did not cover.
	MissingCells int `json:"missing_cells"`
	// AmbiguousCells counts grid points where more than one record matched
	// a fully specified assignment; the first by record order won.
	AmbiguousCells int `json:"ambiguous_cells"`
	// ConversionFailures counts matched records whose metric value was
	// absent, non-numeric or NaN.
	ConversionFailures int `json:"conversion_failures"`
}

// Matrix is an ordered 2D slice of a performance metric. Values is row-major
// with YLabels rows and XLabels columns; missing cells hold NaN and are
// false in Valid.
type Matrix struct {
	Metric  string   `json:"metric"`
	XAxis   string   `json:"x_axis"`
	YAxis   string   `json:"y_axis"`
	XLabels []string `json:"x_labels"`
	YLabels []string `json:"y_labels"`

	Values [][]float64 `json:"values"`
	Valid  [][]bool    `json:"valid"`

	ValidCells int `json:"valid_cells"`
	TotalCells int `json:"total_cells"`

	Diagnostics MatrixDiagnostics `json:"diagnostics"`
}

// matrixJSON is the wire form of Matrix. JSON cannot carry NaN, so missing
// cells travel as null and are restored to NaN on decode.
type matrixJSON struct {
	Metric  string   `json:"metric"`
	XAxis   string   `json:"x_axis"`
	YAxis   string   `json:"y_axis"`
	XLabels []string `json:"x_labels"`
	YLabels []string `json:"y_labels"`

	Values [][]*float64 `json:"values"`
	Valid  [][]bool     `json:"valid"`

	ValidCells int `json:"valid_cells"`
	TotalCells int `json:"total_cells"`

	Diagnostics MatrixDiagnostics `json:"diagnostics"`
}

func (m Matrix) MarshalJSON() ([]byte, error) {
	wire := matrixJSON{
		Metric:      m.Metric,
		XAxis:       m.XAxis,
		YAxis:       m.YAxis,
		XLabels:     m.XLabels,
		YLabels:     m.YLabels,
		Valid:       m.Valid,
		ValidCells:  m.ValidCells,
		TotalCells:  m.TotalCells,
		Diagnostics: m.Diagnostics,
	}
	wire.Values = make([][]*float64, len(m.Values))
	for y, row := range m.Values {
		wire.Values[y] = make([]*float64, len(row))
		for x := range row {
			if m.Valid[y][x] {
				v := row[x]
				wire.Values[y][x] = &v
			}
		}
	}
	return json.Marshal(wire)
}

func (m *Matrix) UnmarshalJSON(data []byte) error {
	var wire matrixJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = Matrix{
		Metric:      wire.Metric,
		XAxis:       wire.XAxis,
		YAxis:       wire.YAxis,
		XLabels:     wire.XLabels,
		YLabels:     wire.YLabels,
		Valid:       wire.Valid,
		ValidCells:  wire.ValidCells,
		TotalCells:  wire.TotalCells,
		Diagnostics: wire.Diagnostics,
	}
	m.Values = make([][]float64, len(wire.Values))
	for y, row := range wire.Values {
		m.Values[y] = make([]float64, len(row))
		for x, v := range row {
			if v != nil {
				m.Values[y][x] = *v
			} else {
				m.Values[y][x] = math.NaN()
			}
		}
	}
	return nil
}

// ValidValues returns the non-missing cell values, in row-major order.
// The colorscale mapper uses this to pick the drawdown band.
func (m Matrix) ValidValues() []float64 {
	out := make([]float64, 0, m.ValidCells)
	for y := range m.Values {
		for x, v := range m.Values[y] {
			if m.Valid[y][x] {
				out = append(out, v)
			}
		}
	}
	return out
}

// BuildMatrix computes the metric surface over the Cartesian product of the
// two axis domains. Every cell is resolved through FindSubset with the axes
// pinned on top of the fixed assignment: zero matches is a missing cell,
// one match contributes its metric, and duplicates resolve to the first
// record in original order with a diagnostic flag. Nothing here returns an
// error; a selection that matches nothing yields an all-missing matrix.
func (m *IndexManager) BuildMatrix(req MatrixRequest) Matrix {
	extract := req.Extract
	if extract == nil {
		extract = sweep.Record.Metric
	}

	xValues, yValues := req.XValues, req.YValues
	if len(xValues) == 0 || len(yValues) == 0 {
		domains := m.VariableParams(req.Strategy, req.Fixed)
		if len(xValues) == 0 {
			xValues = domains.Variables[req.XAxis]
		}
		if len(yValues) == 0 {
			yValues = domains.Variables[req.YAxis]
		}
	}

	out := Matrix{
		Metric:     req.Metric,
		XAxis:      req.XAxis,
		YAxis:      req.YAxis,
		XLabels:    xValues,
		YLabels:    yValues,
		Values:     make([][]float64, len(yValues)),
		Valid:      make([][]bool, len(yValues)),
		TotalCells: len(xValues) * len(yValues),
	}

	cell := make(map[string]string, len(req.Fixed)+2)
	for y, yVal := range yValues {
		out.Values[y] = make([]float64, len(xValues))
		out.Valid[y] = make([]bool, len(xValues))

		for x, xVal := range xValues {
			for name, val := range req.Fixed {
				cell[name] = val
			}
			cell[req.XAxis] = xVal
			cell[req.YAxis] = yVal

			matches := m.FindSubset(req.Strategy, cell)
			for name := range cell {
				delete(cell, name)
			}

			out.Values[y][x] = math.NaN()
			switch {
			case len(matches) == 0:
				out.Diagnostics.MissingCells++
				continue
			case len(matches) > 1:
				out.Diagnostics.AmbiguousCells++
			}

			val, ok := extract(m.records[matches[0]], req.Metric)
			if !ok || math.IsNaN(val) {
				out.Diagnostics.MissingCells++
				out.Diagnostics.ConversionFailures++
				continue
			}

			out.Values[y][x] = val
			out.Valid[y][x] = true
			out.ValidCells++
		}
	}

	return out
}
