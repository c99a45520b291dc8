package frame

import (
	"testing"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(name string) Variable { return Variable{Name: name} }
func tm(value string) Term   { return Term{Value: value} }

func speechAct(id, content Element) FrameNode {
	return FrameNode{
		Positionals: []Element{tm("SPEECHACT"), id, tm("SA_TELL")},
		KVPairs:     []KVPair{{Key: tm("CONTENT"), Value: content}},
	}
}

func TestIdentityAndRoles(t *testing.T) {
	n := speechAct(tm("V1"), tm("V2"))
	assert.Equal(t, tm("V1"), n.Identity())
	assert.Equal(t, 4, n.Size())

	got, ok := n.Get(tm("CONTENT"))
	require.True(t, ok)
	assert.Equal(t, tm("V2"), got)
	assert.False(t, n.Has(tm("content")), "keys compare verbatim")

	assert.Nil(t, FrameNode{Positionals: []Element{tm("F")}}.Identity())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, speechAct(v("?s"), v("?c")).Validate())

	short := FrameNode{Positionals: []Element{tm("F")}}
	assert.True(t, errors.Is(short.Validate(), errors.ErrMalformedInput))

	dup := speechAct(v("?s"), v("?c"))
	dup.KVPairs = append(dup.KVPairs, KVPair{Key: tm("CONTENT"), Value: tm("X")})
	assert.True(t, errors.Is(dup.Validate(), errors.ErrMalformedInput))

	err := RuleSet{speechAct(v("?s"), v("?c")), short}.Validate()
	assert.True(t, errors.Is(err, errors.ErrMalformedInput))
	assert.Contains(t, err.Error(), "node 1")
}

func TestEqualAndFingerprint(t *testing.T) {
	a := FrameNode{
		Positionals: []Element{tm("F"), v("?x")},
		KVPairs: []KVPair{
			{Key: tm("AGENT"), Value: v("?a")},
			{Key: tm("THEME"), Value: tm("V3")},
		},
		TypeWord: []Element{tm("WANT"), tm("WANT")},
	}
	b := a
	b.KVPairs = []KVPair{a.KVPairs[1], a.KVPairs[0]}

	assert.True(t, a.Equal(b), "role order is irrelevant")
	assert.True(t, RuleSet{a, a}.Equal(RuleSet{b, b}))
	assert.False(t, RuleSet{a}.Equal(RuleSet{a, a}))
	assert.Equal(t, RuleSet{a}.Fingerprint(), RuleSet{b}.Fingerprint())

	c := a
	c.TypeWord = []Element{tm("WANT")}
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, RuleSet{a}.Fingerprint(), RuleSet{c}.Fingerprint())

	d := a
	d.Positionals = []Element{tm("F"), tm("?x")}
	assert.False(t, a.Equal(d), "term and variable with same text differ")
}

func TestString(t *testing.T) {
	n := FrameNode{
		Positionals: []Element{tm("F"), v("?c")},
		TypeWord:    []Element{tm("HAVE-PROPERTY"), tm("BE")},
		KVPairs: []KVPair{
			{Key: tm("NEUTRAL"), Value: v("?n")},
			{Key: tm("MODALITY"), Value: tm("DO DO")},
		},
	}
	assert.Equal(t, "(F ?c (:* HAVE-PROPERTY BE) :NEUTRAL ?n :MODALITY (:* DO DO))", n.String())
	assert.Equal(t, "F ?c", n.Label())
}

func TestCardinality(t *testing.T) {
	rs := RuleSet{
		speechAct(v("?s"), v("?c")),
		{Positionals: []Element{tm("F"), v("?c")}, KVPairs: []KVPair{{Key: tm("NEUTRAL"), Value: v("?n")}}},
		{Positionals: []Element{tm("THE"), v("?n")}, TypeWord: []Element{tm("PLANT")}},
	}
	assert.Equal(t, 4+3+2, rs.Cardinality())
	assert.Equal(t, 0, RuleSet{}.Cardinality())
}

func TestGoverning(t *testing.T) {
	rs := RuleSet{
		speechAct(v("?s"), v("?c")),
		{Positionals: []Element{tm("F"), v("?C")}, KVPairs: []KVPair{{Key: tm("NEUTRAL"), Value: v("?n")}}},
	}

	idx, err := rs.Governing(v("?c"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx, "variable identity ignores case")

	idx, err = rs.Governing(v("?n"))
	require.NoError(t, err)
	assert.Equal(t, -1, idx, "occurs only as a value")

	idx, err = rs.Governing(tm("SA_TELL"))
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	_, err = rs.Governing(v("?missing"))
	assert.True(t, errors.Is(err, errors.ErrDanglingElement))
}

func TestReferent(t *testing.T) {
	rs := RuleSet{
		{Positionals: []Element{tm("F"), tm("V1")}, KVPairs: []KVPair{{Key: tm("A"), Value: tm("V2")}}},
		{Positionals: []Element{tm("F"), tm("V2")}},
	}

	assert.Equal(t, 1, rs.Referent(tm("V2"), 0))
	assert.Equal(t, -1, rs.Referent(tm("V2"), 1), "a rule does not refer to itself")
	assert.Equal(t, -1, rs.Referent(tm("v2"), 0), "terms compare verbatim")
	assert.Equal(t, -1, rs.Referent(tm("V9"), 0))
}

func TestVariables(t *testing.T) {
	rs := RuleSet{
		speechAct(v("?s"), v("?c")),
		{Positionals: []Element{tm("F"), v("?C")}, KVPairs: []KVPair{{Key: tm("NEUTRAL"), Value: v("?n")}}},
	}
	assert.Equal(t, []Variable{v("?s"), v("?c"), v("?n")}, rs.Variables())
}

func TestRuleSetFingerprintIsOrderSensitive(t *testing.T) {
	a := speechAct(tm("V1"), tm("V2"))
	b := FrameNode{Positionals: []Element{tm("F"), tm("V2")}}
	assert.NotEqual(t, RuleSet{a, b}.Fingerprint(), RuleSet{b, a}.Fingerprint())
	assert.Equal(t, RuleSet{a, b}.Fingerprint(), Parse{a, b}.AsRuleSet().Fingerprint())
	assert.Equal(t, "((SPEECHACT V1 SA_TELL :CONTENT V2)(F V2))", Parse{a, b}.String())
}
