package plateau

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/plateau/internal/sweep"
)

func maGroup(stratIdx string, fields map[string]string) sweep.IndicatorGroup {
	return sweep.IndicatorGroup{IndicatorType: "MA", StratIdx: stratIdx, Fields: fields}
}

func TestStrategyKeyCanonical(t *testing.T) {
	rec := sweep.Record{
		Entry: []sweep.IndicatorGroup{
			maGroup("2", map[string]string{"period": "5"}),
			{IndicatorType: "BB", StratIdx: "1", Fields: map[string]string{"width": "2"}},
		},
		Exit: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "10"})},
	}

	// entry side is sorted independently of declaration order
	assert.Equal(t, "Entry:BB1,MA2|Exit:MA1", StrategyKey(rec))
}

func TestStrategyKeyIgnoresParameterValues(t *testing.T) {
	a := sweep.Record{
		Entry: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "5"})},
		Exit:  []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "10"})},
	}
	b := sweep.Record{
		Entry: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "50"})},
		Exit:  []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "100"})},
	}

	assert.Equal(t, StrategyKey(a), StrategyKey(b))
}

func TestClassifyGroupsAndLabels(t *testing.T) {
	records := []sweep.Record{
		{
			Entry: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "5"})},
			Exit:  []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "10"})},
		},
		{
			Entry: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "20"})},
			Exit:  []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "10"})},
		},
	}

	class := Classify(records)

	require.Len(t, class.Keys, 1)
	strat := class.Strategies["Entry:MA1|Exit:MA1"]
	require.NotNil(t, strat)
	assert.Equal(t, []int{0, 1}, strat.Members)
	assert.Equal(t, []string{"MA1"}, strat.EntryNames)
	assert.Equal(t, "Entry: MA1 | Exit: MA1 (2 combinations)", strat.Label)
	assert.Zero(t, class.Skipped)
}

func TestClassifyExcludesRecordsWithoutGroups(t *testing.T) {
	records := []sweep.Record{
		{
			Entry: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "5"})},
			Exit:  []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "10"})},
		},
		{
			// no exit side: excluded, not silently dropped
			Entry: []sweep.IndicatorGroup{maGroup("1", map[string]string{"period": "5"})},
		},
		{
			// no groups at all
			Metrics: map[string]string{"Sharpe": "1.0"},
		},
	}

	class := Classify(records)

	assert.Equal(t, 2, class.Skipped)
	require.Len(t, class.Keys, 1)
	assert.Equal(t, []int{0}, class.Strategies[class.Keys[0]].Members)
}
