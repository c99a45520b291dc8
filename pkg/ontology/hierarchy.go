package ontology

import (
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
)

// Argument is a role restriction declared on an ontology type.
type Argument struct {
	Role         string   `json:"role"`
	Restrictions []string `json:"restrictions,omitempty"`
	Optionality  string   `json:"optionality,omitempty"`
	Implements   string   `json:"implements,omitempty"`
}

// Type is one record of the ontology export.
type Type struct {
	Name      string     `json:"name"`
	Parent    ParentName `json:"parent"`
	Arguments []Argument `json:"arguments,omitempty"`
}

// ParentName accepts a string, null, or the empty list the export uses for
// root types.
type ParentName string

func (p *ParentName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParentName(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.Wrapf(errors.ErrMalformedInput, "parent must be a string or list: %s", string(data))
	}
	if len(list) > 1 {
		return errors.Wrapf(errors.ErrMalformedInput, "multiple parents %v", list)
	}
	*p = ""
	if len(list) == 1 {
		*p = ParentName(list[0])
	}
	return nil
}

type node struct {
	name      string
	parent    *node
	depth     int
	ancestors map[*node]struct{}
	arguments []Argument
}

func (n *node) Name() string { return n.name }

func (n *node) Equal(other Entry) bool {
	o, ok := other.(*node)
	return ok && o == n
}

func (n *node) IsAncestorOf(other Entry) bool {
	o, ok := other.(*node)
	if !ok || o == n {
		return false
	}
	_, found := o.ancestors[n]
	return found
}

// Hierarchy is an immutable single-parent type tree. Names are matched
// case-insensitively.
type Hierarchy struct {
	types map[string]*node
	names []string
}

var _ Context = (*Hierarchy)(nil)

// New builds a Hierarchy, precomputing every type's ancestor set.
func New(types []Type) (*Hierarchy, error) {
	h := &Hierarchy{types: make(map[string]*node, len(types))}
	for _, t := range types {
		key := strings.ToLower(t.Name)
		if key == "" {
			return nil, errors.Wrap(errors.ErrMalformedInput, "ontology type without name")
		}
		if _, dup := h.types[key]; dup {
			return nil, errors.Wrapf(errors.ErrMalformedInput, "duplicate ontology type %q", t.Name)
		}
		h.types[key] = &node{name: t.Name, arguments: t.Arguments}
		h.names = append(h.names, t.Name)
	}

	for _, t := range types {
		if t.Parent == "" {
			continue
		}
		n := h.types[strings.ToLower(t.Name)]
		p, ok := h.types[strings.ToLower(string(t.Parent))]
		if !ok {
			return nil, errors.Wrapf(errors.ErrMalformedInput, "type %q has unknown parent %q", t.Name, t.Parent)
		}
		n.parent = p
	}

	for _, n := range h.types {
		n.ancestors = make(map[*node]struct{})
		for p := n.parent; p != nil; p = p.parent {
			if _, seen := n.ancestors[p]; seen || p == n {
				return nil, errors.Wrapf(errors.ErrMalformedInput, "cycle through type %q", n.name)
			}
			n.ancestors[p] = struct{}{}
			n.depth++
		}
	}

	sort.Strings(h.names)
	return h, nil
}

// Load reads the JSON array export of the ontology.
func Load(r io.Reader) (*Hierarchy, error) {
	var types []Type
	if err := json.NewDecoder(r).Decode(&types); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "decode ontology: %v", err)
	}
	return New(types)
}

// LoadFile reads an ontology export from disk.
func LoadFile(path string) (*Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ontology %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Lookup resolves a type by name.
func (h *Hierarchy) Lookup(id string) (Entry, bool) {
	n, ok := h.types[strings.ToLower(id)]
	if !ok {
		return nil, false
	}
	return n, true
}

// Len returns the number of types.
func (h *Hierarchy) Len() int { return len(h.types) }

// Names returns every type name in sorted order.
func (h *Hierarchy) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Ancestors returns the chain from the type's parent up to its root.
func (h *Hierarchy) Ancestors(name string) ([]string, error) {
	n, err := h.get(name)
	if err != nil {
		return nil, err
	}
	var chain []string
	for p := n.parent; p != nil; p = p.parent {
		chain = append(chain, p.name)
	}
	return chain, nil
}

// Arguments returns the role restrictions declared on a type.
func (h *Hierarchy) Arguments(name string) ([]Argument, error) {
	n, err := h.get(name)
	if err != nil {
		return nil, err
	}
	return n.arguments, nil
}

// Distance counts the edges between two types through their lowest common
// ancestor. Types in different trees have no distance.
func (h *Hierarchy) Distance(a, b string) (int, error) {
	na, err := h.get(a)
	if err != nil {
		return 0, err
	}
	nb, err := h.get(b)
	if err != nil {
		return 0, err
	}

	for x, up := na, 0; x != nil; x, up = x.parent, up+1 {
		if x == nb {
			return up, nil
		}
		if _, ok := nb.ancestors[x]; ok {
			return up + nb.depth - x.depth, nil
		}
	}
	return 0, errors.Newf("types %q and %q share no ancestor", a, b)
}

// Suggest returns up to n known names closest to name by edit distance.
func (h *Hierarchy) Suggest(name string, n int) []string {
	if n <= 0 || len(h.names) == 0 {
		return nil
	}
	query := strings.ToLower(name)
	type scored struct {
		name string
		dist int
	}
	all := make([]scored, 0, len(h.names))
	for _, candidate := range h.names {
		all = append(all, scored{candidate, levenshtein.Distance(query, strings.ToLower(candidate), nil)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if n > len(all) {
		n = len(all)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = all[i].name
	}
	return out
}

func (h *Hierarchy) get(name string) (*node, error) {
	n, ok := h.types[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "ontology type %q", name)
	}
	return n, nil
}
