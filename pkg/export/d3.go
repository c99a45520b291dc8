// Package export renders match results for visualisation.
package export

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/matcher"
)

// Node groups.
const (
	GroupRule  = "rule"
	GroupParse = "parse"
)

// Link types.
const (
	LinkMapping = "mapping"
	LinkRole    = "role"
)

// D3Node represents a frame in the D3 force-directed graph.
type D3Node struct {
	ID       string            `json:"id"`             // "rule:<i>" or "parse:<j>"
	Name     string            `json:"name"`           // indicator and identity
	Kind     string            `json:"kind,omitempty"` // indicator
	Group    string            `json:"group"`
	Frame    string            `json:"frame"` // logical form of the node
	Mapped   bool              `json:"mapped"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// D3Link represents an edge in the D3 force-directed graph.
type D3Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight,omitempty"`
	Type     string  `json:"type"`
}

// D3Graph represents the full graph structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
	Score float64  `json:"score"`
}

// D3Transformer converts match results to D3 graphs.
type D3Transformer struct {
	// Engine, when set, weights mapping links by how much of the rule the
	// node satisfies.
	Engine *matcher.Engine
}

// NewD3Transformer returns a transformer. engine may be nil.
func NewD3Transformer(engine *matcher.Engine) *D3Transformer {
	return &D3Transformer{Engine: engine}
}

// Transform draws rules and parse nodes side by side, role edges within each
// side, and a mapping edge for every committed pair.
func (t *D3Transformer) Transform(rules frame.RuleSet, parse frame.Parse, res *matcher.Result) (*D3Graph, error) {
	if res == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no result to export")
	}
	g := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}, Score: res.Score}

	mappedRules := make(map[int]int, len(res.Pairs))
	mappedNodes := make(map[int]bool, len(res.Pairs))
	for i, p := range res.Pairs {
		mappedRules[p.Rule] = i
		mappedNodes[p.Node] = true
	}

	for i, r := range rules {
		n := frameNode(ruleID(i), GroupRule, r)
		if round, ok := mappedRules[i]; ok {
			n.Mapped = true
			n.Metadata["round"] = strconv.Itoa(round + 1)
		}
		g.Nodes = append(g.Nodes, n)
	}
	for j, p := range parse {
		n := frameNode(parseID(j), GroupParse, p)
		n.Mapped = mappedNodes[j]
		g.Nodes = append(g.Nodes, n)
	}

	g.Links = append(g.Links, roleLinks(rules, ruleID)...)
	g.Links = append(g.Links, roleLinks(parse, parseID)...)

	var weights []int
	if t.Engine != nil {
		var err error
		if weights, err = t.Engine.Contributions(rules, parse, res); err != nil {
			return nil, errors.Wrap(err, "weight mapping links")
		}
	}
	for i, p := range res.Pairs {
		l := D3Link{
			Source:   ruleID(p.Rule),
			Target:   parseID(p.Node),
			Relation: "maps_to",
			Type:     LinkMapping,
		}
		if weights != nil {
			if size := rules[p.Rule].Size(); size > 0 {
				l.Weight = float64(weights[i]) / float64(size)
			}
		}
		g.Links = append(g.Links, l)
	}
	return g, nil
}

func frameNode(id, group string, n frame.FrameNode) D3Node {
	d := D3Node{
		ID:       id,
		Name:     n.Label(),
		Group:    group,
		Frame:    n.String(),
		Metadata: map[string]string{},
	}
	if len(n.Positionals) > 0 {
		d.Kind = n.Positionals[0].String()
	}
	if len(n.TypeWord) > 0 {
		d.Metadata["type"] = n.TypeWord[0].String()
	}
	if len(n.TypeWord) > 1 {
		d.Metadata["word"] = n.TypeWord[1].String()
	}
	return d
}

// roleLinks adds an edge for every role whose value is another node's
// identity. Values naming several nodes link to the first.
func roleLinks(nodes []frame.FrameNode, id func(int) string) []D3Link {
	var links []D3Link
	for i, n := range nodes {
		for _, kv := range n.KVPairs {
			for j, target := range nodes {
				if frame.Same(kv.Value, target.Identity()) {
					links = append(links, D3Link{
						Source:   id(i),
						Target:   id(j),
						Relation: kv.Key.Value,
						Type:     LinkRole,
					})
					break
				}
			}
		}
	}
	return links
}

func ruleID(i int) string  { return "rule:" + strconv.Itoa(i) }
func parseID(j int) string { return "parse:" + strconv.Itoa(j) }

// SaveD3Graph writes the graph to a JSON file.
func SaveD3Graph(graph *D3Graph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(graph)
}
