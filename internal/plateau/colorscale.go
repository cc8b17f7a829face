package plateau

import "github.com/sawpanic/plateau/internal/sweep"

// MetricKind tags the closed set of metrics the colorscale mapper knows.
// Branching happens on the kind and its threshold table, not on raw metric
// strings scattered through the rendering path.
type MetricKind int

const (
	KindUnknown MetricKind = iota
	KindSharpe
	KindSortino
	KindCalmar
	KindMaxDrawdown
)

// ParseMetricKind maps a metric name onto its kind. Unknown names get
// KindUnknown and the neutral default scale.
func ParseMetricKind(name string) MetricKind {
	switch name {
	case sweep.MetricSharpe:
		return KindSharpe
	case sweep.MetricSortino:
		return KindSortino
	case sweep.MetricCalmar:
		return KindCalmar
	case sweep.MetricMaxDrawdown:
		return KindMaxDrawdown
	default:
		return KindUnknown
	}
}

// Stop is one gradient breakpoint: a position in [0,1] and a hex color.
type Stop struct {
	Pos   float64 `json:"pos"`
	Color string  `json:"color"`
}

// Scale is the resolved discrete colorscale for one rendered matrix: the
// gradient stops, the forced z-range the heatmap must clamp to, and the
// quality thresholds documented for the metric.
type Scale struct {
	Metric string `json:"metric"`
	Stops  []Stop `json:"stops"`

	// ZMin/ZMax force the rendered value range independently of the data;
	// out-of-range values clamp visually rather than rescale the gradient.
	ZMin      float64 `json:"zmin"`
	ZMax      float64 `json:"zmax"`
	HasZRange bool    `json:"has_zrange"`

	// Thresholds carries the documented quality bands
	// (unacceptable/qualified/good/excellent) for UI legends.
	Thresholds map[string]float64 `json:"thresholds,omitempty"`

	// Band names which drawdown gradient was picked; empty for the
	// ratio metrics whose gradient never depends on the data.
	Band string `json:"band,omitempty"`
}

// The pre-authored gradients. The ratio metrics share one fixed 5-stop
// gradient over a forced [0.5, 2.0] range. Max drawdown picks one of four
// hand-tuned bands by the worst (minimum) valid value; brighter bands mean
// the whole surface stayed in shallow-drawdown territory.
var (
	ratioStops = []Stop{
		{0.0, "#520032"},
		{0.25, "#751614"},
		{0.5, "#F2933A"},
		{0.75, "#FFD525"},
		{1.0, "#F9F8BB"},
	}

	drawdownExcellentStops = []Stop{{0.0, "#F9F8BB"}, {0.5, "#FFF399"}, {1.0, "#FFE252"}}
	drawdownGoodStops      = []Stop{{0.0, "#FFD525"}, {0.5, "#FFE252"}, {1.0, "#FFF399"}}
	drawdownQualifiedStops = []Stop{{0.0, "#F2933A"}, {0.5, "#F5A23A"}, {1.0, "#FFD525"}}
	drawdownWorstStops     = []Stop{{0.0, "#520032"}, {0.3, "#751614"}, {0.6, "#F2933A"}, {1.0, "#F0AA38"}}

	neutralStops = []Stop{{0.0, "#520032"}, {0.5, "#F2933A"}, {1.0, "#F9F8BB"}}
)

// Documented quality thresholds per metric. Calmar keeps its own table even
// though it renders over the same forced range as Sharpe and Sortino; the
// mismatch is intentional and preserved.
var kindThresholds = map[MetricKind]map[string]float64{
	KindSharpe:      {"unacceptable": 0.5, "qualified": 1.0, "good": 1.5, "excellent": 2.0},
	KindSortino:     {"unacceptable": 0.5, "qualified": 1.0, "good": 1.5, "excellent": 2.0},
	KindCalmar:      {"unacceptable": 0.5, "qualified": 0.7, "good": 1.2, "excellent": 2.0},
	KindMaxDrawdown: {"unacceptable": -0.7, "qualified": -0.5, "good": -0.3, "excellent": -0.1},
}

// ScaleFor resolves the colorscale for a metric. Only Max_drawdown inspects
// the matrix: its gradient depends on which threshold band the minimum valid
// value falls into. A matrix with no valid values gets the neutral default.
func ScaleFor(metric string, matrix Matrix) Scale {
	return ScaleForValues(metric, matrix.ValidValues())
}

// ScaleForValues is ScaleFor for callers that already hold the valid cell
// values, such as the standalone colorscale endpoint.
func ScaleForValues(metric string, valid []float64) Scale {
	scale := Scale{Metric: metric}

	kind := ParseMetricKind(metric)
	if kind == KindUnknown || len(valid) == 0 {
		scale.Stops = neutralStops
		scale.Band = "default"
		return scale
	}
	scale.Thresholds = kindThresholds[kind]

	if kind != KindMaxDrawdown {
		scale.Stops = ratioStops
		scale.ZMin, scale.ZMax = 0.5, 2.0
		scale.HasZRange = true
		return scale
	}

	minVal := valid[0]
	for _, v := range valid[1:] {
		if v < minVal {
			minVal = v
		}
	}

	t := scale.Thresholds
	switch {
	case minVal >= t["excellent"]:
		scale.Stops, scale.Band = drawdownExcellentStops, "excellent"
	case minVal >= t["good"]:
		scale.Stops, scale.Band = drawdownGoodStops, "good"
	case minVal >= t["qualified"]:
		scale.Stops, scale.Band = drawdownQualifiedStops, "qualified"
	default:
		scale.Stops, scale.Band = drawdownWorstStops, "unacceptable"
	}
	scale.ZMin, scale.ZMax = -0.7, 0.0
	scale.HasZRange = true
	return scale
}
