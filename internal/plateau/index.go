package plateau

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/plateau/internal/sweep"
)

// strategyIndex is the per-strategy lookup structure: for every qualified
// parameter name, a posting list of member record positions per canonical
// value. A fixed-parameter query is the intersection of its posting lists,
// replacing the original token-subset linear scan with the same semantics
// and better asymptotics.
type strategyIndex struct {
	members []int // record positions in original order

	// params is the sorted set of qualified parameter names seen in this
	// strategy, e.g. "Entry_MA1_shortMA_period".
	params []string

	// postings maps name -> canonical value -> sorted member positions.
	postings map[string]map[string][]int

	// assign maps record position -> name -> canonical value, used by the
	// variable-parameter analyzer to collect distinct values per candidate.
	assign map[int]map[string]string
}

// qualifiedAssignment flattens a record into its full parameter assignment:
// "Entry_<instance>_<field>" and "Exit_<instance>_<field>" to canonical
// values. Identity fields (indicator_type, strat_idx) are not parameters.
func qualifiedAssignment(rec sweep.Record) map[string]string {
	out := make(map[string]string)
	for _, g := range rec.Entry {
		for _, field := range g.FieldNames() {
			out["Entry_"+g.InstanceName()+"_"+field] = CanonValue(g.Fields[field])
		}
	}
	for _, g := range rec.Exit {
		for _, field := range g.FieldNames() {
			out["Exit_"+g.InstanceName()+"_"+field] = CanonValue(g.Fields[field])
		}
	}
	return out
}

func buildStrategyIndex(records []sweep.Record, members []int) *strategyIndex {
	idx := &strategyIndex{
		members:  members,
		postings: make(map[string]map[string][]int),
		assign:   make(map[int]map[string]string, len(members)),
	}

	for _, pos := range members {
		assignment := qualifiedAssignment(records[pos])
		idx.assign[pos] = assignment
		for name, val := range assignment {
			byValue, ok := idx.postings[name]
			if !ok {
				byValue = make(map[string][]int)
				idx.postings[name] = byValue
			}
			byValue[val] = append(byValue[val], pos)
		}
	}

	for name := range idx.postings {
		idx.params = append(idx.params, name)
	}
	sort.Strings(idx.params)
	return idx
}

// IndexManager owns the lazily built per-strategy indexes for one loaded
// dataset. It is safe for concurrent readers: a build happens on a fresh
// index that is only published once complete, and the built map is guarded
// by a read-write lock.
type IndexManager struct {
	records []sweep.Record
	class   Classification

	mu    sync.RWMutex
	built map[string]*strategyIndex

	// onBuild is an optional hook for cache hit/miss accounting.
	onBuild func(strategy string, hit bool)
}

// NewIndexManager creates an index manager over a classified dataset.
// Nothing is built until the first query touches a strategy.
func NewIndexManager(records []sweep.Record, class Classification) *IndexManager {
	return &IndexManager{
		records: records,
		class:   class,
		built:   make(map[string]*strategyIndex),
	}
}

// SetBuildHook installs an observer called once per strategy lookup with
// whether the index was already built. Must be set before serving queries.
func (m *IndexManager) SetBuildHook(hook func(strategy string, hit bool)) {
	m.onBuild = hook
}

// Classification returns the dataset's strategy grouping.
func (m *IndexManager) Classification() Classification {
	return m.class
}

// indexFor returns the built index for a strategy, building it on first
// access. Unknown strategies return nil; that is an empty query result, not
// an error, so an interactive session never crashes on a stale selector.
func (m *IndexManager) indexFor(strategy string) *strategyIndex {
	m.mu.RLock()
	idx, ok := m.built[strategy]
	m.mu.RUnlock()
	if ok {
		if m.onBuild != nil {
			m.onBuild(strategy, true)
		}
		return idx
	}

	strat, known := m.class.Strategies[strategy]
	if !known {
		return nil
	}

	start := time.Now()
	fresh := buildStrategyIndex(m.records, strat.Members)

	m.mu.Lock()
	// another reader may have raced the build; keep the published one
	if existing, ok := m.built[strategy]; ok {
		m.mu.Unlock()
		return existing
	}
	m.built[strategy] = fresh
	m.mu.Unlock()

	if m.onBuild != nil {
		m.onBuild(strategy, false)
	}
	log.Debug().
		Str("strategy", strategy).
		Int("records", len(fresh.members)).
		Int("params", len(fresh.params)).
		Dur("elapsed", time.Since(start)).
		Msg("strategy index built")
	return fresh
}

// FindSubset returns the positions of every record in the strategy whose
// full assignment is consistent with the fixed parameters, in original
// record order. An empty fixed set matches every member. Unknown strategy
// or unmatchable fixed values yield an empty result.
func (m *IndexManager) FindSubset(strategy string, fixed map[string]string) []int {
	idx := m.indexFor(strategy)
	if idx == nil {
		return nil
	}

	canon := canonAssignment(fixed)
	if len(canon) == 0 {
		out := make([]int, len(idx.members))
		copy(out, idx.members)
		return out
	}

	// intersect the shortest posting lists first
	lists := make([][]int, 0, len(canon))
	for name, val := range canon {
		byValue, ok := idx.postings[name]
		if !ok {
			return nil
		}
		list, ok := byValue[val]
		if !ok {
			return nil
		}
		lists = append(lists, list)
	}
	sort.Slice(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })

	result := lists[0]
	for _, list := range lists[1:] {
		result = intersectSorted(result, list)
		if len(result) == 0 {
			return nil
		}
	}

	out := make([]int, len(result))
	copy(out, result)
	return out
}

// ParamNames returns the sorted qualified parameter names of a strategy,
// or nil for an unknown strategy.
func (m *IndexManager) ParamNames(strategy string) []string {
	idx := m.indexFor(strategy)
	if idx == nil {
		return nil
	}
	out := make([]string, len(idx.params))
	copy(out, idx.params)
	return out
}

// intersectSorted merges two ascending posting lists.
func intersectSorted(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
