// Package frame models semantic-frame graphs: the nodes of a parser's
// logical form and the rules of a hand-written template share one shape.
package frame

import (
	"strings"

	"github.com/duynguyendang/tripsim/pkg/ontology"
)

// Element is a slot value: either a free Variable or a concrete Term.
type Element interface {
	// Key is a canonical structural key. Variables differing only in case
	// share a key.
	Key() string
	String() string
	isElement()
}

// Variable is a free slot in a rule. Names keep their leading '?'.
type Variable struct {
	Name string
}

// Term is a concrete domain symbol.
type Term struct {
	Value string
}

func (v Variable) Key() string    { return "v:" + strings.ToLower(v.Name) }
func (v Variable) String() string { return v.Name }
func (Variable) isElement()       {}

func (t Term) Key() string    { return "t:" + t.Value }
func (t Term) String() string { return t.Value }
func (Term) isElement()       {}

// ParseElement turns a logical-form token into an Element. Tokens starting
// with '?' are variables.
func ParseElement(tok string) Element {
	if strings.HasPrefix(tok, "?") {
		return Variable{Name: tok}
	}
	return Term{Value: tok}
}

// IsVariable reports whether e is a Variable.
func IsVariable(e Element) bool {
	_, ok := e.(Variable)
	return ok
}

// indicators are the structural markers of speech-act, predication and
// pronoun frames. They match any term.
var indicators = map[string]struct{}{
	"speechact": {},
	"f":         {},
	"pro":       {},
	"pro-set":   {},
}

// IsIndicator reports whether value is a structural indicator.
func IsIndicator(value string) bool {
	_, ok := indicators[strings.ToLower(value)]
	return ok
}

// Equivalent is the relaxed equality used for matching. A variable accepts
// any term; two variables must share a name; two terms are compared through
// the ontology.
//
// The relation is symmetric but not transitive: an inconsistent ontology can
// make a ~ b and b ~ c hold while a ~ c does not.
func Equivalent(a, b Element, ont ontology.Context) bool {
	switch x := a.(type) {
	case Variable:
		switch y := b.(type) {
		case Variable:
			return strings.EqualFold(x.Name, y.Name)
		case Term:
			return true
		}
	case Term:
		switch y := b.(type) {
		case Variable:
			return true
		case Term:
			return termsEquivalent(x, y, ont)
		}
	}
	return false
}

func termsEquivalent(a, b Term, ont ontology.Context) bool {
	if IsIndicator(a.Value) || IsIndicator(b.Value) {
		return true
	}
	if ont == nil {
		ont = ontology.Empty
	}
	ea, okA := ont.Lookup(a.Value)
	eb, okB := ont.Lookup(b.Value)
	switch {
	case okA && okB:
		return ea.Equal(eb) || ea.IsAncestorOf(eb) || eb.IsAncestorOf(ea)
	case okA != okB:
		// a pair resolving on one side only is not equivalent
		return false
	default:
		return a.Value == b.Value
	}
}

// Same is structural identity: same variant, variable names equal ignoring
// case, term values equal exactly. It identifies references, where
// Equivalent decides compatibility.
func Same(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}
