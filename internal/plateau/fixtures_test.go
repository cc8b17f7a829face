package plateau

import (
	"fmt"

	"github.com/sawpanic/plateau/internal/sweep"
)

const gridStrategy = "Entry:MA1|Exit:MA1"

// gridRecord is one cell of the test sweep: fast and slow are the entry MA
// periods, exitPeriod the exit MA period.
func gridRecord(fast, slow int, exitPeriod string, metrics map[string]string) sweep.Record {
	return sweep.Record{
		ID: fmt.Sprintf("bt_%d_%d_%s", fast, slow, exitPeriod),
		Entry: []sweep.IndicatorGroup{{
			IndicatorType: "MA",
			StratIdx:      "1",
			Fields: map[string]string{
				"fast": fmt.Sprintf("%d", fast),
				"slow": fmt.Sprintf("%d", slow),
			},
		}},
		Exit: []sweep.IndicatorGroup{{
			IndicatorType: "MA",
			StratIdx:      "1",
			Fields:        map[string]string{"period": exitPeriod},
		}},
		Metrics: metrics,
	}
}

// gridRecords is the full sweep over fast ∈ {1,2,3} and slow ∈ {10,20} with
// the exit period constant at 5. Sharpe encodes the cell as fast + slow/100
// so tests can assert exact placement.
func gridRecords() []sweep.Record {
	var records []sweep.Record
	for _, slow := range []int{10, 20} {
		for _, fast := range []int{1, 2, 3} {
			records = append(records, gridRecord(fast, slow, "5", map[string]string{
				"Sharpe":       fmt.Sprintf("%.2f", float64(fast)+float64(slow)/100),
				"Max_drawdown": "-0.2",
			}))
		}
	}
	return records
}

func newGridManager(records []sweep.Record) *IndexManager {
	return NewIndexManager(records, Classify(records))
}
