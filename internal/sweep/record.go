// Package sweep defines the data contract between the backtest sweep
// producers (file exports, Postgres, Redis snapshots) and the plateau
// analysis core. A sweep is the full set of backtested parameter-value
// combinations explored for one or more strategies.
package sweep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Well-known metric names produced by the backtest engine. The analysis
// core accepts any metric key; these are the ones the UI exposes.
const (
	MetricSharpe      = "Sharpe"
	MetricSortino     = "Sortino"
	MetricCalmar      = "Calmar"
	MetricMaxDrawdown = "Max_drawdown"
)

// IndicatorGroup is one indicator instance inside a record: its identity
// (type + strategy slot) plus the numeric fields that were swept.
type IndicatorGroup struct {
	IndicatorType string
	StratIdx      string
	// Fields holds the swept parameter values keyed by field name, as the
	// raw scalar text from the source (numbers keep their original text).
	Fields map[string]string
}

// InstanceName returns the identity used to tell two instances of the same
// indicator type apart, e.g. "MA1".
func (g IndicatorGroup) InstanceName() string {
	return g.IndicatorType + g.StratIdx
}

// Record is one backtested parameter combination together with the metrics
// the engine computed for it. Records are immutable once loaded.
type Record struct {
	ID      string
	Entry   []IndicatorGroup
	Exit    []IndicatorGroup
	Metrics map[string]string
}

// Metric returns the named metric coerced to a float. The second return is
// false when the metric is absent or not numeric; callers treat that as a
// missing cell, never as an error.
func (r Record) Metric(name string) (float64, bool) {
	raw, ok := r.Metrics[name]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// reserved group keys that are identity, not swept parameters
const (
	keyIndicatorType = "indicator_type"
	keyStratIdx      = "strat_idx"
	keyEntryParams   = "Entry_params"
	keyExitParams    = "Exit_params"
	keyRecordID      = "id"
)

// UnmarshalJSON accepts the sweep export shape: Entry_params and Exit_params
// arrays of indicator objects, an optional id, and every remaining scalar
// treated as a metric. Numbers are kept as their source text so that the
// core's canonicalization rule sees exactly what the engine wrote.
func (r *Record) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}

	out := Record{Metrics: make(map[string]string)}
	for key, raw := range top {
		switch key {
		case keyEntryParams:
			groups, err := unmarshalGroups(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			out.Entry = groups
		case keyExitParams:
			groups, err := unmarshalGroups(raw)
			if err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			out.Exit = groups
		case keyRecordID:
			s, ok := scalarText(raw)
			if !ok {
				return fmt.Errorf("record id is not a scalar")
			}
			out.ID = s
		default:
			if s, ok := scalarText(raw); ok {
				out.Metrics[key] = s
			}
			// non-scalar extras (nested debug blobs etc.) are ignored
		}
	}

	*r = out
	return nil
}

// MarshalJSON writes the same shape UnmarshalJSON reads, so snapshots
// round-trip through Redis without loss.
func (r Record) MarshalJSON() ([]byte, error) {
	top := make(map[string]any, len(r.Metrics)+3)
	if r.ID != "" {
		top[keyRecordID] = r.ID
	}
	top[keyEntryParams] = marshalGroups(r.Entry)
	top[keyExitParams] = marshalGroups(r.Exit)
	for name, val := range r.Metrics {
		top[name] = val
	}
	return json.Marshal(top)
}

func unmarshalGroups(raw json.RawMessage) ([]IndicatorGroup, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	groups := make([]IndicatorGroup, 0, len(items))
	for _, item := range items {
		g := IndicatorGroup{Fields: make(map[string]string)}
		for key, val := range item {
			s, ok := scalarText(val)
			if !ok {
				return nil, fmt.Errorf("field %q is not a scalar", key)
			}
			switch key {
			case keyIndicatorType:
				g.IndicatorType = s
			case keyStratIdx:
				g.StratIdx = s
			default:
				g.Fields[key] = s
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func marshalGroups(groups []IndicatorGroup) []map[string]string {
	out := make([]map[string]string, 0, len(groups))
	for _, g := range groups {
		item := make(map[string]string, len(g.Fields)+2)
		item[keyIndicatorType] = g.IndicatorType
		item[keyStratIdx] = g.StratIdx
		for name, val := range g.Fields {
			item[name] = val
		}
		out = append(out, item)
	}
	return out
}

// scalarText renders a JSON scalar as text. Numbers use their literal source
// text (json.Number), so 5 stays "5" and 5.0 stays "5.0".
func scalarText(raw json.RawMessage) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

// FieldNames returns the sorted swept field names of a group.
func (g IndicatorGroup) FieldNames() []string {
	names := make([]string, 0, len(g.Fields))
	for name := range g.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
