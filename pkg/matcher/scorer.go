// Package matcher scores a template rule set against a parse and recovers the
// variable bindings of the best greedy rule→node mapping.
package matcher

import (
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/ontology"
)

// Scorer counts how much of one rule a node satisfies.
type Scorer struct {
	ont ontology.Context
}

// NewScorer returns a scorer comparing terms through ont. A nil ont compares
// terms by string identity.
func NewScorer(ont ontology.Context) *Scorer {
	if ont == nil {
		ont = ontology.Empty
	}
	return &Scorer{ont: ont}
}

// Score is the number of the rule's positionals found among the node's
// positionals plus the number of the rule's roles the node fills with an
// equivalent value. It is unnormalised.
func (s *Scorer) Score(rule, node frame.FrameNode) int {
	return s.scorePositionals(rule, node) + s.scoreRoles(rule, node)
}

// scorePositionals is a greedy multiset match: each rule positional consumes
// the first remaining equivalent node positional.
func (s *Scorer) scorePositionals(rule, node frame.FrameNode) int {
	used := make([]bool, len(node.Positionals))
	count := 0
	for _, p := range rule.Positionals {
		for i, q := range node.Positionals {
			if used[i] || !frame.Equivalent(p, q, s.ont) {
				continue
			}
			used[i] = true
			count++
			break
		}
	}
	return count
}

func (s *Scorer) scoreRoles(rule, node frame.FrameNode) int {
	count := 0
	for _, kv := range rule.KVPairs {
		if v, ok := node.Get(kv.Key); ok && frame.Equivalent(kv.Value, v, s.ont) {
			count++
		}
	}
	return count
}
