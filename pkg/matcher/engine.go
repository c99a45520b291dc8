package matcher

import (
	"context"
	"time"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/duynguyendang/tripsim/pkg/ontology"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine runs the greedy maximum-coverage matching of a rule set against a
// parse. It holds no per-run state and may be shared.
type Engine struct {
	scorer  *Scorer
	workers int
	log     *zap.SugaredLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers evaluates the candidate pairs of a round on up to n goroutines.
// Values below 2 keep evaluation on the calling goroutine.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the engine's logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an engine comparing terms through ont.
func New(ont ontology.Context, opts ...Option) *Engine {
	e := &Engine{scorer: NewScorer(ont), workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.Or(e.log, "matcher")
	return e
}

// Scorer exposes the engine's node scorer.
func (e *Engine) Scorer() *Scorer { return e.scorer }

// run is the state of one Match call.
type run struct {
	*Engine
	rules    frame.RuleSet
	nodes    frame.Parse
	compiled []compiledRule
	mapping  []int
}

// Match builds a rule→node mapping greedily. Each round tries every pair of an
// unmapped rule and an unmapped node, keeps the pairs giving the highest
// mapping score, breaks ties by local connectivity, and commits the winner if
// it strictly raises the score. Matching stops at the first round without
// improvement or when every rule is mapped.
//
// It fails with ErrInsufficientParseNodes when rules remain but every node is
// used. The result is not guaranteed to be the global optimum.
func (e *Engine) Match(ctx context.Context, rules frame.RuleSet, parse frame.Parse) (*Result, error) {
	start := time.Now()

	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}
	r := &run{
		Engine:   e,
		rules:    rules,
		nodes:    parse,
		compiled: compiled,
		mapping:  make([]int, len(rules)),
	}
	for i := range r.mapping {
		r.mapping[i] = -1
	}

	res := &Result{Cardinality: rules.Cardinality()}
	unmappedRules := indices(len(rules))
	unmappedNodes := indices(len(parse))

	for len(unmappedRules) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(unmappedNodes) == 0 {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrInsufficientParseNodes,
					"%d of %d rules unmapped after using all %d parse nodes", len(unmappedRules), len(rules), len(parse)),
				"the parse has fewer frames than the template requires")
		}

		best, candidates, err := r.evaluate(ctx, unmappedRules, unmappedNodes)
		if err != nil {
			return nil, err
		}
		winner, conn := r.tieBreak(candidates)

		if best <= res.Raw {
			e.log.Debugw("no improving pair, stopping",
				logger.FieldRound, len(res.Rounds)+1,
				"raw", res.Raw,
				logger.FieldCandidates, len(candidates))
			break
		}

		r.mapping[winner.Rule] = winner.Node
		unmappedRules = remove(unmappedRules, winner.Rule)
		unmappedNodes = remove(unmappedNodes, winner.Node)
		res.Raw = best
		res.Pairs = append(res.Pairs, winner)
		res.Rounds = append(res.Rounds, Round{
			Pair:         winner,
			Raw:          best,
			Score:        normalise(best, res.Cardinality),
			Candidates:   len(candidates),
			Connectivity: conn,
		})
		e.log.Debugw("committed pair",
			logger.FieldRound, len(res.Rounds),
			"rule", rules[winner.Rule].Label(),
			"node", parse[winner.Node].Label(),
			logger.FieldScore, normalise(best, res.Cardinality),
			logger.FieldCandidates, len(candidates))
	}

	res.Score = normalise(res.Raw, res.Cardinality)
	res.Bindings = extractBindings(rules, parse, res.Pairs)

	e.log.Debugw("match finished",
		logger.FieldRules, len(rules),
		logger.FieldNodes, len(parse),
		logger.FieldScore, res.Score,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}

// evaluate scores every tentative pair of the round and returns the best raw
// score with all pairs achieving it, in rule-major order.
func (r *run) evaluate(ctx context.Context, rules, nodes []int) (int, []Pair, error) {
	scores := make([][]int, len(rules))

	score := func(i int) {
		mapping := make([]int, len(r.mapping))
		copy(mapping, r.mapping)
		row := make([]int, len(nodes))
		for j, n := range nodes {
			mapping[rules[i]] = n
			row[j] = r.rawScore(mapping)
		}
		scores[i] = row
	}

	if r.workers < 2 {
		for i := range rules {
			score(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i := range rules {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				score(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return 0, nil, err
		}
	}

	best := -1
	var candidates []Pair
	for i, row := range scores {
		for j, s := range row {
			switch {
			case s > best:
				best = s
				candidates = append(candidates[:0], Pair{Rule: rules[i], Node: nodes[j]})
			case s == best:
				candidates = append(candidates, Pair{Rule: rules[i], Node: nodes[j]})
			}
		}
	}
	return best, candidates, nil
}

// rawScore sums the scores of every mapped rule, translated under mapping,
// against its node.
func (r *run) rawScore(mapping []int) int {
	total := 0
	for i, n := range mapping {
		if n < 0 {
			continue
		}
		total += r.scorer.Score(translate(r.compiled[i], mapping, r.nodes), r.nodes[n])
	}
	return total
}

// tieBreak prefers the pair whose rule has the most roles already present on
// the node (outgoing edges) plus the most roles of any rule pointing at the
// rule's identity that the node also carries (incoming edges). The first pair
// in evaluation order wins remaining ties.
func (r *run) tieBreak(candidates []Pair) (Pair, int) {
	best, bestConn := candidates[0], -1
	for _, c := range candidates {
		conn := connectivity(r.rules, c.Rule, r.nodes[c.Node])
		if conn > bestConn {
			best, bestConn = c, conn
		}
	}
	return best, bestConn
}

func connectivity(rules frame.RuleSet, rule int, node frame.FrameNode) int {
	count := 0
	for _, kv := range rules[rule].KVPairs {
		if node.Has(kv.Key) {
			count++
		}
	}
	id := rules[rule].Identity()
	for _, other := range rules {
		for _, kv := range other.KVPairs {
			if frame.Same(kv.Value, id) && node.Has(kv.Key) {
				count++
			}
		}
	}
	return count
}

func normalise(raw, cardinality int) float64 {
	if cardinality == 0 {
		return 0
	}
	return float64(raw) / float64(cardinality)
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func remove(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Contributions returns, for each committed pair of res, the score its rule
// earns against its node under the final mapping. They sum to res.Raw.
func (e *Engine) Contributions(rules frame.RuleSet, parse frame.Parse, res *Result) ([]int, error) {
	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}
	mapping := res.Mapping(len(rules))
	out := make([]int, len(res.Pairs))
	for i, p := range res.Pairs {
		if p.Rule >= len(rules) || p.Node >= len(parse) {
			return nil, errors.AssertionFailedf("pair %v outside %d rules and %d nodes", p, len(rules), len(parse))
		}
		out[i] = e.scorer.Score(translate(compiled[p.Rule], mapping, parse), parse[p.Node])
	}
	return out, nil
}
