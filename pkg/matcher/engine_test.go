package matcher

import (
	"context"
	"testing"

	"github.com/duynguyendang/tripsim/internal/testutil"
	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"github.com/duynguyendang/tripsim/pkg/ontology"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	grassTemplate = `((ONT::SPEECHACT ?speechact SA_TELL :CONTENT ?content)
(ONT::F ?content (:* ONT::HAVE-PROPERTY ?word-content) :NEUTRAL ?neutral :FORMAL ?formal :TENSE ONT::PRES)
(ONT::THE ?neutral (:* ONT::PLANT ?word-neutral))
(ONT::F ?formal (:* ONT::COLOR-VAL ?word-formal) :FIGURE ?neutral))`

	grassParse = `((ONT::SPEECHACT V137370 SA_TELL :CONTENT V137265)
(ONT::F V137265 (:* ONT::HAVE-PROPERTY W::BE) :NEUTRAL V137257 :FORMAL V137287 :TENSE ONT::PRES)
(ONT::THE V137257 (:* ONT::PLANT W::GRASS))
(ONT::F V137287 (:* ONT::GREEN W::GREEN) :FIGURE V137257 :SCALE ONT::GREEN*1--07--00))`
)

func rules(text string) frame.RuleSet { return frame.RuleSet(lf.MustParse(text)) }
func parse(text string) frame.Parse   { return frame.Parse(lf.MustParse(text)) }

func match(t *testing.T, ont ontology.Context, r, p string) *Result {
	t.Helper()
	res, err := New(ont).Match(context.Background(), rules(r), parse(p))
	require.NoError(t, err)
	return res
}

func TestMatchGrass(t *testing.T) {
	res := match(t, testutil.Hierarchy(t), grassTemplate, grassParse)

	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 14, res.Raw)
	assert.Equal(t, 14, res.Cardinality)
	assert.Equal(t, []Pair{{1, 1}, {0, 0}, {3, 3}, {2, 2}}, res.Pairs)

	raws := make([]int, len(res.Rounds))
	for i, r := range res.Rounds {
		raws[i] = r.Raw
	}
	assert.Equal(t, []int{3, 7, 10, 14}, raws)
	assert.Equal(t, 2, res.Rounds[2].Candidates, "rules 2 and 3 tie in round three")
	assert.Equal(t, 1, res.Rounds[2].Connectivity)

	b := res.Bindings
	assert.Equal(t, 4, b.Len())
	assert.Empty(t, b.Conflicts())
	assert.Equal(t, map[string]frame.Element{
		"?content":   frame.Term{Value: "V137265"},
		"?neutral":   frame.Term{Value: "V137257"},
		"?formal":    frame.Term{Value: "V137287"},
		"?speechact": frame.Term{Value: "V137370"},
	}, b.Terms())

	neutral, ok := b.Lookup(frame.Variable{Name: "?NEUTRAL"})
	require.True(t, ok)
	assert.Equal(t, []Candidate{{Value: frame.Term{Value: "V137257"}, Count: 3}}, neutral.Candidates)

	for name, rule := range map[string]int{"?speechact": 0, "?content": 1, "?neutral": 2, "?formal": 3} {
		got, ok := b.Rule(frame.Variable{Name: name})
		assert.True(t, ok, name)
		assert.Equal(t, rule, got, name)
	}
}

func TestMatchSelf(t *testing.T) {
	for _, text := range []string{grassParse, grassTemplate, "((F V1 :A V2)(F V2 :A V1))"} {
		res := match(t, testutil.Hierarchy(t), text, text)
		assert.Equal(t, 1.0, res.Score, text)
		assert.Equal(t, rules(text).Cardinality(), res.Raw, text)
	}
}

func TestMatchScenarios(t *testing.T) {
	tests := []struct {
		name  string
		ont   ontology.Context
		rules string
		parse string
		score float64
		pairs []Pair
		terms map[string]frame.Element
	}{
		{
			name:  "speech act",
			rules: "((SPEECHACT ?s SA_TELL :CONTENT ?c))",
			parse: "((SPEECHACT V1 SA_TELL :CONTENT V2))",
			score: 1,
			pairs: []Pair{{0, 0}},
			terms: map[string]frame.Element{"?s": frame.Term{Value: "V1"}, "?c": frame.Term{Value: "V2"}},
		},
		{
			name:  "renamed variables",
			rules: "((SPEECHACT ?x SA_TELL :CONTENT ?y))",
			parse: "((SPEECHACT V1 SA_TELL :CONTENT V2))",
			score: 1,
			pairs: []Pair{{0, 0}},
			terms: map[string]frame.Element{"?x": frame.Term{Value: "V1"}, "?y": frame.Term{Value: "V2"}},
		},
		{
			name:  "ancestor category",
			rules: "((THE ?x :CATEGORY PLANT))",
			parse: "((THE V1 :CATEGORY GRASS))",
			score: 1,
			pairs: []Pair{{0, 0}},
			terms: map[string]frame.Element{"?x": frame.Term{Value: "V1"}},
		},
		{
			name:  "ancestor category without ontology",
			ont:   ontology.Empty,
			rules: "((THE ?x :CATEGORY PLANT))",
			parse: "((THE V1 :CATEGORY GRASS))",
			score: 2.0 / 3.0,
			pairs: []Pair{{0, 0}},
			terms: map[string]frame.Element{"?x": frame.Term{Value: "V1"}},
		},
		{
			name:  "ties resolve in rule then node order",
			rules: "((F ?a)(F ?b))",
			parse: "((F V1)(F V2))",
			score: 1,
			pairs: []Pair{{0, 0}, {1, 1}},
			terms: map[string]frame.Element{"?a": frame.Term{Value: "V1"}, "?b": frame.Term{Value: "V2"}},
		},
		{
			name:  "stops without improvement",
			rules: "((F W1 :R C)(ZZZ W9))",
			parse: "((F W1 :R C)(YYY V3))",
			score: 3.0 / 5.0,
			pairs: []Pair{{0, 0}},
			terms: map[string]frame.Element{},
		},
		{
			name:  "local ids refer to other rules",
			rules: "((F V1 :A V2)(F V2))",
			parse: "((F X1 :A X2)(F X2))",
			score: 3.0 / 5.0,
			pairs: []Pair{{0, 0}, {1, 1}},
			terms: map[string]frame.Element{},
		},
		{
			name:  "parse reused as template",
			rules: "((F V1 :A V2)(F V2))",
			parse: "((F V1 :A V2)(F V2))",
			score: 1,
			pairs: []Pair{{0, 0}, {1, 1}},
			terms: map[string]frame.Element{},
		},
		{
			name:  "extra parse nodes",
			rules: "((F ?a :THEME ?b))",
			parse: "((THE V9)(F V1 :THEME V2)(PRO V3))",
			score: 1,
			pairs: []Pair{{0, 1}},
			terms: map[string]frame.Element{"?a": frame.Term{Value: "V1"}, "?b": frame.Term{Value: "V2"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ont := tt.ont
			if ont == nil {
				ont = testutil.Hierarchy(t)
			}
			res := match(t, ont, tt.rules, tt.parse)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, tt.pairs, res.Pairs)
			assert.Equal(t, tt.terms, res.Bindings.Terms())
		})
	}
}

func TestMatchConflictingBindings(t *testing.T) {
	res := match(t, nil, "((F ?c :AGENT ?a :THEME ?a))", "((F V1 :AGENT V3 :THEME V4))")
	assert.Equal(t, 1.0, res.Score)

	conflicts := res.Bindings.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, frame.Variable{Name: "?a"}, conflicts[0].Variable)
	assert.Equal(t, []Candidate{
		{Value: frame.Term{Value: "V3"}, Count: 1},
		{Value: frame.Term{Value: "V4"}, Count: 1},
	}, conflicts[0].Candidates)

	v, ok := res.Bindings.Term(frame.Variable{Name: "?a"})
	require.True(t, ok)
	assert.Equal(t, frame.Term{Value: "V3"}, v)

	_, ok = res.Bindings.Rule(frame.Variable{Name: "?a"})
	assert.False(t, ok, "?a is no rule's identity")
	c, ok := res.Bindings.Rule(frame.Variable{Name: "?c"})
	assert.True(t, ok)
	assert.Equal(t, 0, c)
}

func TestMatchInsufficientNodes(t *testing.T) {
	_, err := New(nil).Match(context.Background(), rules("((F ?a)(F ?b))"), parse("((F V1))"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientParseNodes))
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, err = New(nil).Match(context.Background(), rules("((F ?a))"), nil)
	assert.True(t, errors.Is(err, errors.ErrInsufficientParseNodes))
}

func TestMatchEmptyRuleSet(t *testing.T) {
	res, err := New(nil).Match(context.Background(), nil, parse("((F V1))"))
	require.NoError(t, err)
	assert.Zero(t, res.Score)
	assert.Zero(t, res.Bindings.Len())
}

func TestMatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Match(ctx, rules(grassTemplate), parse(grassParse))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchScoreNeverDecreases(t *testing.T) {
	res := match(t, testutil.Hierarchy(t), grassTemplate, grassParse)
	prev := 0.0
	for i, r := range res.Rounds {
		assert.Greater(t, r.Score, prev, "round %d", i)
		prev = r.Score
	}
	assert.LessOrEqual(t, res.Score, 1.0)
}

func TestMatchParallelIsDeterministic(t *testing.T) {
	ont := testutil.Hierarchy(t)
	r, p := rules(grassTemplate), parse(grassParse)

	seq, err := New(ont, WithWorkers(1)).Match(context.Background(), r, p)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		par, err := New(ont, WithWorkers(8)).Match(context.Background(), r, p)
		require.NoError(t, err)
		if diff := cmp.Diff(seq, par, cmp.AllowUnexported(Bindings{})); diff != "" {
			t.Fatalf("parallel run %d differs (-seq +par):\n%s", i, diff)
		}
	}
}

func TestMatchDoesNotModifyInput(t *testing.T) {
	r, p := rules(grassTemplate), parse(grassParse)
	before := r.String() + p.String()
	match(t, nil, grassTemplate, grassParse)
	_, err := New(nil, WithWorkers(4)).Match(context.Background(), r, p)
	require.NoError(t, err)
	assert.Equal(t, before, r.String()+p.String())
}

func TestContributions(t *testing.T) {
	e := New(testutil.Hierarchy(t))
	r, p := rules(grassTemplate), parse(grassParse)
	res, err := e.Match(context.Background(), r, p)
	require.NoError(t, err)

	got, err := e.Contributions(r, p, res)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3, 2}, got)

	sum := 0
	for _, c := range got {
		sum += c
	}
	assert.Equal(t, res.Raw, sum)
}
