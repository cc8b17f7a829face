package plateau

import "sort"

// VariableSet reports which parameters of a strategy still vary once the
// fixed parameters are applied. A parameter is variable only if more than
// one distinct value is observed among the candidate records; a parameter
// the sweep never varied is implicitly constant and never listed.
type VariableSet struct {
	Strategy string `json:"strategy"`

	// Variables maps qualified parameter name to its sorted value domain.
	Variables map[string][]string `json:"variables"`

	// Names is the sorted listing order of Variables.
	Names []string `json:"names"`

	// Candidates is the size of the record subset the analysis ran over.
	Candidates int `json:"candidates"`

	// InsufficientAxes is set when fewer than two parameters vary, so the
	// caller can prompt the user to unfix something instead of failing.
	InsufficientAxes bool `json:"insufficient_axes"`
}

// VariableParams determines the free parameters of a strategy under a fixed
// assignment. Growing the fixed set can only shrink the candidate subset,
// so the variable set shrinks or stays equal, never grows.
func (m *IndexManager) VariableParams(strategy string, fixed map[string]string) VariableSet {
	vs := VariableSet{
		Strategy:  strategy,
		Variables: make(map[string][]string),
	}

	idx := m.indexFor(strategy)
	if idx == nil {
		vs.InsufficientAxes = true
		return vs
	}

	candidates := m.FindSubset(strategy, fixed)
	vs.Candidates = len(candidates)
	if len(candidates) == 0 {
		vs.InsufficientAxes = true
		return vs
	}

	for _, name := range idx.params {
		if _, isFixed := fixed[name]; isFixed {
			continue
		}
		distinct := make(map[string]struct{})
		for _, pos := range candidates {
			if val, ok := idx.assign[pos][name]; ok {
				distinct[val] = struct{}{}
			}
		}
		if len(distinct) <= 1 {
			continue
		}
		domain := make([]string, 0, len(distinct))
		for val := range distinct {
			domain = append(domain, val)
		}
		sortValues(domain)
		vs.Variables[name] = domain
		vs.Names = append(vs.Names, name)
	}

	sort.Strings(vs.Names)
	vs.InsufficientAxes = len(vs.Names) < 2
	return vs
}
