package matcher

import (
	"github.com/duynguyendang/tripsim/pkg/frame"
)

// slot is a rule value with the index of the rule it refers to, or -1 when
// it passes through translation unchanged.
type slot struct {
	elem frame.Element
	gov  int
}

type compiledRule struct {
	positionals []slot
	keys        []frame.Term
	values      []slot
	typeWord    []frame.Element
}

// compile resolves, once per run, which rule each value refers to. A
// variable refers to its governing rule. A term refers to the first other
// rule carrying it as identity; the term in a rule's own identity slot
// refers to nothing.
func compile(rules frame.RuleSet) ([]compiledRule, error) {
	resolve := func(self int, e frame.Element) (slot, error) {
		if !frame.IsVariable(e) {
			return slot{elem: e, gov: rules.Referent(e, self)}, nil
		}
		gov, err := rules.Governing(e)
		if err != nil {
			return slot{}, err
		}
		return slot{elem: e, gov: gov}, nil
	}

	out := make([]compiledRule, len(rules))
	for i, r := range rules {
		c := compiledRule{typeWord: r.TypeWord}
		for k, p := range r.Positionals {
			if k == 1 && !frame.IsVariable(p) {
				c.positionals = append(c.positionals, slot{elem: p, gov: -1})
				continue
			}
			s, err := resolve(i, p)
			if err != nil {
				return nil, err
			}
			c.positionals = append(c.positionals, s)
		}
		for _, kv := range r.KVPairs {
			s, err := resolve(i, kv.Value)
			if err != nil {
				return nil, err
			}
			c.keys = append(c.keys, kv.Key)
			c.values = append(c.values, s)
		}
		out[i] = c
	}
	return out, nil
}

// translate rewrites a rule under a partial mapping. A value referring to a
// mapped rule becomes that rule's node identity; a value referring to an
// unmapped rule is dropped until it can be resolved. The input rule is not
// modified.
func translate(c compiledRule, mapping []int, nodes frame.Parse) frame.FrameNode {
	out := frame.FrameNode{
		Positionals: make([]frame.Element, 0, len(c.positionals)),
		KVPairs:     make([]frame.KVPair, 0, len(c.values)),
		TypeWord:    c.typeWord,
	}
	for _, s := range c.positionals {
		if e, ok := resolveSlot(s, mapping, nodes); ok {
			out.Positionals = append(out.Positionals, e)
		}
	}
	for i, s := range c.values {
		if e, ok := resolveSlot(s, mapping, nodes); ok {
			out.KVPairs = append(out.KVPairs, frame.KVPair{Key: c.keys[i], Value: e})
		}
	}
	return out
}

func resolveSlot(s slot, mapping []int, nodes frame.Parse) (frame.Element, bool) {
	if s.gov < 0 {
		return s.elem, true
	}
	n := mapping[s.gov]
	if n < 0 {
		return nil, false
	}
	id := nodes[n].Identity()
	return id, id != nil
}
