package matcher

import "github.com/duynguyendang/tripsim/pkg/frame"

// Pair is one committed rule→node assignment, by index.
type Pair struct {
	Rule int `json:"rule"`
	Node int `json:"node"`
}

// Round records the state after one accepted round.
type Round struct {
	Pair         Pair    `json:"pair"`
	Raw          int     `json:"raw"`
	Score        float64 `json:"score"`
	Candidates   int     `json:"candidates"`
	Connectivity int     `json:"connectivity"`
}

// Result is the outcome of one matching run.
type Result struct {
	// Score is Raw normalised by Cardinality, in [0, 1] for well-formed input.
	Score       float64  `json:"score"`
	Raw         int      `json:"raw"`
	Cardinality int      `json:"cardinality"`
	Pairs       []Pair   `json:"pairs"`
	Rounds      []Round  `json:"rounds"`
	Bindings    Bindings `json:"bindings"`
}

// NodeFor returns the node mapped to rule, if any.
func (r *Result) NodeFor(rule int) (int, bool) {
	for _, p := range r.Pairs {
		if p.Rule == rule {
			return p.Node, true
		}
	}
	return -1, false
}

// Mapping returns the mapping as a slice indexed by rule, -1 for unmapped
// rules.
func (r *Result) Mapping(rules int) []int {
	m := make([]int, rules)
	for i := range m {
		m[i] = -1
	}
	for _, p := range r.Pairs {
		if p.Rule < rules {
			m[p.Rule] = p.Node
		}
	}
	return m
}

// Complete reports whether every rule of rs was mapped.
func (r *Result) Complete(rs frame.RuleSet) bool {
	return len(r.Pairs) == len(rs)
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	out := *r
	out.Pairs = append([]Pair(nil), r.Pairs...)
	out.Rounds = append([]Round(nil), r.Rounds...)
	out.Bindings = r.Bindings.clone()
	return &out
}
