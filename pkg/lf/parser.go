// Package lf reads TRIPS logical forms into frame nodes.
//
// Two surface forms are accepted: the Lisp-style text printed by the parser,
//
//	((ONT::SPEECHACT V1 SA_TELL :CONTENT V2)
//	 (ONT::F V2 (:* ONT::HAVE-PROPERTY W::BE) :NEUTRAL V3))
//
// and the JSON document served by the TRIPS web parser (see ParseJSON).
package lf

import (
	"strings"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
)

// sexp is either an atom or a list.
type sexp struct {
	atom string
	list []sexp
	pos  int
}

func (s sexp) isList() bool { return s.list != nil }

func (s sexp) isTypeWord() bool {
	return s.isList() && len(s.list) > 0 && !s.list[0].isList() && s.list[0].atom == ":*"
}

// Parse reads logical-form text. The input may be a parenthesised list of
// nodes, a single node, or several nodes one after another.
func Parse(text string) ([]frame.FrameNode, error) {
	exprs, err := read(text)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, errors.Wrap(errors.ErrMalformedInput, "empty logical form")
	}

	var nodes []frame.FrameNode
	for _, e := range exprs {
		if !e.isList() {
			return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: unexpected atom %q outside a frame", e.pos, e.atom)
		}
		if len(e.list) > 0 && e.list[0].isList() {
			for _, child := range e.list {
				if !child.isList() {
					return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: unexpected atom %q between frames", child.pos, child.atom)
				}
				n, err := toNode(child)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, n)
			}
			continue
		}
		n, err := toNode(e)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// MustParse is Parse for fixed inputs; it panics on error.
func MustParse(text string) []frame.FrameNode {
	nodes, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return nodes
}

// ParseRules reads a template rule set.
func ParseRules(text string) (frame.RuleSet, error) {
	nodes, err := Parse(text)
	return frame.RuleSet(nodes), err
}

// ParseNodes reads a parser output.
func ParseNodes(text string) (frame.Parse, error) {
	nodes, err := Parse(text)
	return frame.Parse(nodes), err
}

// Format renders nodes as logical-form text that Parse reads back.
func Format(nodes []frame.FrameNode) string {
	return frame.Parse(nodes).String()
}

// read splits text into top-level s-expressions. Parentheses are the only
// delimiters besides whitespace.
func read(text string) ([]sexp, error) {
	var (
		stack [][]sexp
		opens []int
		cur   []sexp
		start = -1
	)
	flush := func(end int) {
		if start < 0 {
			return
		}
		cur = append(cur, sexp{atom: normalise(text[start:end]), pos: start})
		start = -1
	}

	for i, r := range text {
		switch {
		case r == '(':
			flush(i)
			stack = append(stack, cur)
			opens = append(opens, i)
			cur = nil
		case r == ')':
			flush(i)
			if len(stack) == 0 {
				return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: unbalanced ')'", i)
			}
			list := cur
			if list == nil {
				list = []sexp{}
			}
			done := sexp{list: list, pos: opens[len(opens)-1]}
			cur = append(stack[len(stack)-1], done)
			stack = stack[:len(stack)-1]
			opens = opens[:len(opens)-1]
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))
	if len(stack) > 0 {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: unclosed '('", opens[len(opens)-1])
	}
	return cur, nil
}

// normalise drops the ontology and lexicon package prefixes.
func normalise(tok string) string {
	tok = strings.ReplaceAll(tok, "ONT::", "")
	return strings.ReplaceAll(tok, "W::", "")
}

func isKeyword(s sexp) bool {
	return !s.isList() && len(s.atom) > 1 && s.atom[0] == ':' && s.atom != ":*"
}

func toNode(e sexp) (frame.FrameNode, error) {
	var n frame.FrameNode
	items := e.list
	i := 0
	for ; i < len(items) && !isKeyword(items[i]); i++ {
		it := items[i]
		switch {
		case it.isTypeWord():
			if n.TypeWord != nil {
				return n, errors.Wrapf(errors.ErrMalformedInput, "offset %d: second type word in frame", it.pos)
			}
			words, err := typeWord(it)
			if err != nil {
				return n, err
			}
			n.TypeWord = words
		case it.isList():
			return n, errors.Wrapf(errors.ErrMalformedInput, "offset %d: nested list in positionals", it.pos)
		default:
			n.Positionals = append(n.Positionals, frame.ParseElement(it.atom))
		}
	}

	for i < len(items) {
		key := items[i]
		if !isKeyword(key) {
			return n, errors.Wrapf(errors.ErrMalformedInput, "offset %d: expected a role keyword", key.pos)
		}
		if i+1 >= len(items) || isKeyword(items[i+1]) {
			return n, errors.Wrapf(errors.ErrMalformedInput, "offset %d: role %s has no value", key.pos, key.atom)
		}
		val, err := roleValue(items[i+1])
		if err != nil {
			return n, err
		}
		n.KVPairs = append(n.KVPairs, frame.KVPair{
			Key:   frame.Term{Value: strings.TrimPrefix(key.atom, ":")},
			Value: val,
		})
		i += 2
	}

	if err := n.Validate(); err != nil {
		return n, errors.Wrapf(err, "offset %d", e.pos)
	}
	return n, nil
}

func typeWord(s sexp) ([]frame.Element, error) {
	var out []frame.Element
	for _, w := range s.list[1:] {
		if w.isList() {
			return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: nested list in type word", w.pos)
		}
		out = append(out, frame.ParseElement(w.atom))
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: empty type word", s.pos)
	}
	return out, nil
}

// roleValue reads a role value. A (:* TYPE WORD) value collapses into one
// term.
func roleValue(s sexp) (frame.Element, error) {
	if !s.isList() {
		return frame.ParseElement(s.atom), nil
	}
	if !s.isTypeWord() {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "offset %d: nested list as role value", s.pos)
	}
	words, err := typeWord(s)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.String()
	}
	return frame.Term{Value: strings.Join(parts, " ")}, nil
}
