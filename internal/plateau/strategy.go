package plateau

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/sweep"
)

// Strategy is one bucket of sweep records that share the same active
// indicator instances, regardless of their numeric parameter values.
type Strategy struct {
	Key        string   `json:"key"`
	EntryNames []string `json:"entry_names"`
	ExitNames  []string `json:"exit_names"`
	Members    []int    `json:"-"`
	Label      string   `json:"label"`
}

// Classification is the result of grouping a dataset into strategies.
// Keys is sorted for stable listings; Skipped counts records that were
// excluded because they lack entry or exit indicator groups.
type Classification struct {
	Strategies map[string]*Strategy
	Keys       []string
	Skipped    int
}

// StrategyKey builds the canonical strategy identity for a record:
// "Entry:<a,b,...>|Exit:<c,d,...>" from the sorted instance names of each
// side. Two records share a key iff they use the same indicator instances.
func StrategyKey(rec sweep.Record) string {
	return fmt.Sprintf("Entry:%s|Exit:%s",
		strings.Join(instanceNames(rec.Entry), ","),
		strings.Join(instanceNames(rec.Exit), ","))
}

func instanceNames(groups []sweep.IndicatorGroup) []string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.InstanceName())
	}
	sort.Strings(names)
	return names
}

// Classify groups records into strategies. Records with no entry groups or
// no exit groups do not belong to any strategy: they are counted in Skipped
// and logged once in aggregate rather than silently dropped.
func Classify(records []sweep.Record) Classification {
	class := Classification{Strategies: make(map[string]*Strategy)}

	for i, rec := range records {
		if len(rec.Entry) == 0 || len(rec.Exit) == 0 {
			class.Skipped++
			log.Debug().Int("record", i).Str("id", rec.ID).Msg("record lacks entry or exit groups, excluded from classification")
			continue
		}

		key := StrategyKey(rec)
		strat, ok := class.Strategies[key]
		if !ok {
			strat = &Strategy{
				Key:        key,
				EntryNames: instanceNames(rec.Entry),
				ExitNames:  instanceNames(rec.Exit),
			}
			class.Strategies[key] = strat
			class.Keys = append(class.Keys, key)
		}
		strat.Members = append(strat.Members, i)
	}

	sort.Strings(class.Keys)
	for _, strat := range class.Strategies {
		strat.Label = fmt.Sprintf("Entry: %s | Exit: %s (%d combinations)",
			strings.Join(strat.EntryNames, ", "),
			strings.Join(strat.ExitNames, ", "),
			len(strat.Members))
	}

	if class.Skipped > 0 {
		log.Warn().Int("skipped", class.Skipped).Int("total", len(records)).Msg("records excluded from strategy classification")
	}
	return class
}
