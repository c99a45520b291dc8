package frame

import (
	"sort"
	"strings"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
)

// KVPair is one role of a frame. Keys are always terms.
type KVPair struct {
	Key   Term
	Value Element
}

// FrameNode is one node of a parse or one rule of a template.
//
// Positionals[0] is conventionally a structural indicator and Positionals[1]
// the node's identity. KVPairs keep their source order; keys are unique.
type FrameNode struct {
	Positionals []Element
	KVPairs     []KVPair
	TypeWord    []Element
}

// Identity returns the node's reference handle, Positionals[1].
func (n FrameNode) Identity() Element {
	if len(n.Positionals) < 2 {
		return nil
	}
	return n.Positionals[1]
}

// Get returns the value stored under key, compared verbatim.
func (n FrameNode) Get(key Term) (Element, bool) {
	for _, kv := range n.KVPairs {
		if kv.Key.Value == key.Value {
			return kv.Value, true
		}
	}
	return nil, false
}

// Has reports whether the node carries a role named key.
func (n FrameNode) Has(key Term) bool {
	_, ok := n.Get(key)
	return ok
}

// Size is the node's contribution to a rule set's cardinality.
func (n FrameNode) Size() int {
	return len(n.Positionals) + len(n.KVPairs)
}

// Validate checks the shape invariants loaders must guarantee.
func (n FrameNode) Validate() error {
	if len(n.Positionals) < 2 {
		return errors.Wrapf(errors.ErrMalformedInput, "frame %s has %d positionals, need at least 2", n, len(n.Positionals))
	}
	seen := make(map[string]struct{}, len(n.KVPairs))
	for _, kv := range n.KVPairs {
		if kv.Value == nil {
			return errors.Wrapf(errors.ErrMalformedInput, "frame %s: role %s has no value", n, kv.Key)
		}
		if _, dup := seen[kv.Key.Value]; dup {
			return errors.Wrapf(errors.ErrMalformedInput, "frame %s: duplicate role %s", n, kv.Key)
		}
		seen[kv.Key.Value] = struct{}{}
	}
	return nil
}

// Equal compares nodes field by field using structural element identity.
func (n FrameNode) Equal(o FrameNode) bool {
	if len(n.Positionals) != len(o.Positionals) ||
		len(n.KVPairs) != len(o.KVPairs) ||
		len(n.TypeWord) != len(o.TypeWord) {
		return false
	}
	for i := range n.Positionals {
		if !Same(n.Positionals[i], o.Positionals[i]) {
			return false
		}
	}
	for i := range n.TypeWord {
		if !Same(n.TypeWord[i], o.TypeWord[i]) {
			return false
		}
	}
	for _, kv := range n.KVPairs {
		v, ok := o.Get(kv.Key)
		if !ok || !Same(kv.Value, v) {
			return false
		}
	}
	return true
}

type stringWriter interface {
	WriteString(string) (int, error)
}

func (n FrameNode) writeCanonical(w stringWriter) {
	for _, p := range n.Positionals {
		w.WriteString(p.Key())
		w.WriteString("\x00")
	}
	w.WriteString("\x01")
	for _, t := range n.TypeWord {
		w.WriteString(t.Key())
		w.WriteString("\x00")
	}
	w.WriteString("\x01")
	keys := make([]string, 0, len(n.KVPairs))
	for _, kv := range n.KVPairs {
		keys = append(keys, kv.Key.Value+"\x02"+kv.Value.Key())
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.WriteString(k)
		w.WriteString("\x00")
	}
}

func (n FrameNode) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range n.Positionals {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
		if i == 1 && len(n.TypeWord) > 0 {
			b.WriteString(" (:*")
			for _, t := range n.TypeWord {
				b.WriteByte(' ')
				b.WriteString(t.String())
			}
			b.WriteByte(')')
		}
	}
	for _, kv := range n.KVPairs {
		b.WriteString(" :")
		b.WriteString(kv.Key.Value)
		b.WriteByte(' ')
		b.WriteString(formatValue(kv.Value))
	}
	b.WriteByte(')')
	return b.String()
}

// formatValue renders multi-word terms produced from (:* TYPE WORD) values
// back into their bracketed form.
func formatValue(e Element) string {
	if t, ok := e.(Term); ok && strings.ContainsRune(t.Value, ' ') {
		return "(:* " + t.Value + ")"
	}
	return e.String()
}

// Label is a short display name: indicator and identity.
func (n FrameNode) Label() string {
	switch len(n.Positionals) {
	case 0:
		return "()"
	case 1:
		return n.Positionals[0].String()
	}
	return n.Positionals[0].String() + " " + n.Positionals[1].String()
}
