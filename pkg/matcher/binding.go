package matcher

import (
	"encoding/json"

	"github.com/duynguyendang/tripsim/pkg/frame"
)

// Candidate is one value observed for a variable and how often it was seen.
type Candidate struct {
	Value frame.Element
	Count int
}

// Binding collects every value a variable was matched to. Values are kept in
// first-seen order; nothing is overwritten.
type Binding struct {
	Variable   frame.Variable
	Candidates []Candidate
	// Rule is the index of the mapped rule whose identity is the variable,
	// or -1.
	Rule int
}

// Value returns the most frequently observed value. Ties go to the value
// seen first.
func (b Binding) Value() frame.Element {
	var best Candidate
	for _, c := range b.Candidates {
		if c.Count > best.Count {
			best = c
		}
	}
	return best.Value
}

// Conflicting reports whether the variable was bound to more than one
// distinct value.
func (b Binding) Conflicting() bool {
	return len(b.Candidates) > 1
}

func (b *Binding) observe(v frame.Element) {
	for i := range b.Candidates {
		if frame.Same(b.Candidates[i].Value, v) {
			b.Candidates[i].Count++
			return
		}
	}
	b.Candidates = append(b.Candidates, Candidate{Value: v, Count: 1})
}

// Bindings is the variable assignment derived from a finished mapping, keyed
// by variable ignoring case.
type Bindings struct {
	order []string
	byKey map[string]*Binding
}

func (bs Bindings) clone() Bindings {
	if bs.byKey == nil {
		return Bindings{}
	}
	out := Bindings{
		order: append([]string(nil), bs.order...),
		byKey: make(map[string]*Binding, len(bs.byKey)),
	}
	for k, b := range bs.byKey {
		c := *b
		c.Candidates = append([]Candidate(nil), b.Candidates...)
		out.byKey[k] = &c
	}
	return out
}

// Len is the number of bound variables.
func (bs Bindings) Len() int { return len(bs.order) }

// Variables lists bound variables in first-bound order.
func (bs Bindings) Variables() []frame.Variable {
	out := make([]frame.Variable, 0, len(bs.order))
	for _, k := range bs.order {
		out = append(out, bs.byKey[k].Variable)
	}
	return out
}

// Lookup returns the binding of v.
func (bs Bindings) Lookup(v frame.Variable) (Binding, bool) {
	b, ok := bs.byKey[v.Key()]
	if !ok {
		return Binding{}, false
	}
	return *b, true
}

// Term returns the majority value bound to v.
func (bs Bindings) Term(v frame.Variable) (frame.Element, bool) {
	b, ok := bs.byKey[v.Key()]
	if !ok {
		return nil, false
	}
	return b.Value(), true
}

// Rule returns the index of the mapped rule governing v.
func (bs Bindings) Rule(v frame.Variable) (int, bool) {
	b, ok := bs.byKey[v.Key()]
	if !ok || b.Rule < 0 {
		return -1, false
	}
	return b.Rule, true
}

// Conflicts returns the bindings observed with more than one value.
func (bs Bindings) Conflicts() []Binding {
	var out []Binding
	for _, k := range bs.order {
		if b := bs.byKey[k]; b.Conflicting() {
			out = append(out, *b)
		}
	}
	return out
}

// Terms flattens the bindings to variable name → majority value.
func (bs Bindings) Terms() map[string]frame.Element {
	out := make(map[string]frame.Element, len(bs.order))
	for _, k := range bs.order {
		b := bs.byKey[k]
		out[b.Variable.Name] = b.Value()
	}
	return out
}

// All returns every binding in first-bound order.
func (bs Bindings) All() []Binding {
	out := make([]Binding, 0, len(bs.order))
	for _, k := range bs.order {
		out = append(out, *bs.byKey[k])
	}
	return out
}

func (bs *Bindings) observe(v frame.Variable, value frame.Element) {
	if value == nil {
		return
	}
	if bs.byKey == nil {
		bs.byKey = make(map[string]*Binding)
	}
	b, ok := bs.byKey[v.Key()]
	if !ok {
		b = &Binding{Variable: v, Rule: -1}
		bs.byKey[v.Key()] = b
		bs.order = append(bs.order, v.Key())
	}
	b.observe(value)
}

type jsonCandidate struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type jsonBinding struct {
	Variable   string          `json:"variable"`
	Value      string          `json:"value"`
	Candidates []jsonCandidate `json:"candidates"`
	Rule       *int            `json:"rule,omitempty"`
}

// MarshalJSON renders bindings as an ordered list.
func (bs Bindings) MarshalJSON() ([]byte, error) {
	out := make([]jsonBinding, 0, len(bs.order))
	for _, b := range bs.All() {
		jb := jsonBinding{Variable: b.Variable.Name, Value: b.Value().String()}
		for _, c := range b.Candidates {
			jb.Candidates = append(jb.Candidates, jsonCandidate{Value: c.Value.String(), Count: c.Count})
		}
		if b.Rule >= 0 {
			r := b.Rule
			jb.Rule = &r
		}
		out = append(out, jb)
	}
	return json.Marshal(out)
}

// extractBindings reads the committed pairs in order. Each rule's identity
// binds to its node's identity, and each variable role value binds to the
// node's value for the same role.
func extractBindings(rules frame.RuleSet, nodes frame.Parse, pairs []Pair) Bindings {
	var bs Bindings
	for _, p := range pairs {
		rule, node := rules[p.Rule], nodes[p.Node]
		if v, ok := rule.Identity().(frame.Variable); ok {
			bs.observe(v, node.Identity())
		}
		for _, kv := range rule.KVPairs {
			v, ok := kv.Value.(frame.Variable)
			if !ok {
				continue
			}
			if value, ok := node.Get(kv.Key); ok {
				bs.observe(v, value)
			}
		}
	}

	mapped := make([]bool, len(rules))
	for _, p := range pairs {
		mapped[p.Rule] = true
	}
	for _, b := range bs.byKey {
		for i, r := range rules {
			if mapped[i] && frame.Same(r.Identity(), b.Variable) {
				b.Rule = i
				break
			}
		}
	}
	return bs
}
