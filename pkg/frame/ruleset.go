package frame

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
)

// RuleSet is an ordered template of rules.
type RuleSet []FrameNode

// Parse is an ordered list of parser output nodes.
type Parse []FrameNode

// Cardinality is the total count of positional slots and roles, the
// normaliser of mapping scores.
func (rs RuleSet) Cardinality() int {
	total := 0
	for _, r := range rs {
		total += r.Size()
	}
	return total
}

// Equal compares rule sets rule by rule with FrameNode.Equal.
func (rs RuleSet) Equal(o RuleSet) bool {
	if len(rs) != len(o) {
		return false
	}
	for i := range rs {
		if !rs[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Validate checks every rule's shape.
func (rs RuleSet) Validate() error {
	return validateAll(rs)
}

// Governing returns the index of the first rule whose identity is e. It
// returns -1 with no error when e only occurs as a value, and
// ErrDanglingElement when e does not occur in the rule set at all.
func (rs RuleSet) Governing(e Element) (int, error) {
	for i, r := range rs {
		if Same(r.Identity(), e) {
			return i, nil
		}
	}
	for _, r := range rs {
		for _, p := range r.Positionals {
			if Same(p, e) {
				return -1, nil
			}
		}
		for _, kv := range r.KVPairs {
			if Same(kv.Value, e) {
				return -1, nil
			}
		}
	}
	return -1, errors.Wrapf(errors.ErrDanglingElement, "%s not in rule set", e)
}

// Referent returns the index of the first rule other than self whose
// identity is e, or -1.
func (rs RuleSet) Referent(e Element, self int) int {
	for i, r := range rs {
		if i != self && Same(r.Identity(), e) {
			return i
		}
	}
	return -1
}

// Variables lists the distinct variables of the rule set in first-seen order.
func (rs RuleSet) Variables() []Variable {
	seen := make(map[string]struct{})
	var out []Variable
	add := func(e Element) {
		v, ok := e.(Variable)
		if !ok {
			return
		}
		if _, dup := seen[v.Key()]; dup {
			return
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}
	for _, r := range rs {
		for _, p := range r.Positionals {
			add(p)
		}
		for _, kv := range r.KVPairs {
			add(kv.Value)
		}
	}
	return out
}

// Fingerprint hashes the ordered rule set. Within a rule, role order and
// variable case are ignored.
func (rs RuleSet) Fingerprint() uint64 {
	d := xxhash.New()
	for _, n := range rs {
		n.writeCanonical(d)
		d.WriteString("\x03")
	}
	return d.Sum64()
}

func (rs RuleSet) String() string {
	return formatAll(rs)
}

// Validate checks every node's shape.
func (p Parse) Validate() error {
	return validateAll(p)
}

func (p Parse) String() string {
	return formatAll(p)
}

// AsRuleSet reinterprets parse nodes as rules. Matching a parse against
// itself must score 1.
func (p Parse) AsRuleSet() RuleSet {
	return RuleSet(p)
}

func validateAll(nodes []FrameNode) error {
	for i, n := range nodes {
		if err := n.Validate(); err != nil {
			return errors.Wrapf(err, "node %d", i)
		}
	}
	return nil
}

func formatAll(nodes []FrameNode) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, n := range nodes {
		b.WriteString(n.String())
	}
	b.WriteByte(')')
	return b.String()
}
