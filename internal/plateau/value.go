// Package plateau implements the parameter-space indexing and
// performance-surface slicing engine behind the sweep explorer: strategy
// classification, partial-assignment lookup, free-axis discovery, 2D metric
// matrices, and the discrete threshold colorscales the renderer consumes.
package plateau

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// valueEpsilon bounds the rounding applied before a numeric value becomes an
// index key, so 5, 5.0 and 4.9999999999 all land on the same key.
const valueEpsilon = 1e-9

// CanonValue returns the canonical text form of a parameter value. Numeric
// values are parsed, rounded to the epsilon grid and reformatted with the
// shortest exact representation; anything else is compared as trimmed text.
// One rule for index keys, query values and axis labels.
func CanonValue(raw string) string {
	s := strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	f = math.Round(f/valueEpsilon) * valueEpsilon
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// canonAssignment canonicalizes every value of a fixed-parameter query.
// Names are left untouched; an unknown name simply never matches.
func canonAssignment(fixed map[string]string) map[string]string {
	if len(fixed) == 0 {
		return nil
	}
	out := make(map[string]string, len(fixed))
	for name, val := range fixed {
		out[name] = CanonValue(val)
	}
	return out
}

// sortValues orders canonical values numerically where possible, with
// non-numeric values after the numbers in lexical order. Axis domains and
// variable-parameter listings all use this order.
func sortValues(values []string) {
	sort.Slice(values, func(i, j int) bool {
		fi, erri := strconv.ParseFloat(values[i], 64)
		fj, errj := strconv.ParseFloat(values[j], 64)
		switch {
		case erri == nil && errj == nil:
			if fi != fj {
				return fi < fj
			}
			return values[i] < values[j]
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return values[i] < values[j]
		}
	})
}
