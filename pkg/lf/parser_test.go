package lf

import (
	"os"
	"testing"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grass = `((ONT::SPEECHACT V137370 SA_TELL :CONTENT V137265)
(ONT::F V137265 (:* ONT::HAVE-PROPERTY W::BE) :NEUTRAL V137257 :FORMAL V137287 :TENSE ONT::PRES)
(ONT::THE V137257 (:* ONT::PLANT W::GRASS))
(ONT::F V137287 (:* ONT::GREEN W::GREEN) :FIGURE V137257 :SCALE ONT::GREEN*1--07--00))`

func tm(s string) frame.Term     { return frame.Term{Value: s} }
func vr(s string) frame.Variable { return frame.Variable{Name: s} }
func kv(k string, v frame.Element) frame.KVPair {
	return frame.KVPair{Key: tm(k), Value: v}
}

func grassNodes() []frame.FrameNode {
	return []frame.FrameNode{
		{
			Positionals: []frame.Element{tm("SPEECHACT"), tm("V137370"), tm("SA_TELL")},
			KVPairs:     []frame.KVPair{kv("CONTENT", tm("V137265"))},
		},
		{
			Positionals: []frame.Element{tm("F"), tm("V137265")},
			KVPairs: []frame.KVPair{
				kv("NEUTRAL", tm("V137257")),
				kv("FORMAL", tm("V137287")),
				kv("TENSE", tm("PRES")),
			},
			TypeWord: []frame.Element{tm("HAVE-PROPERTY"), tm("BE")},
		},
		{
			Positionals: []frame.Element{tm("THE"), tm("V137257")},
			TypeWord:    []frame.Element{tm("PLANT"), tm("GRASS")},
		},
		{
			Positionals: []frame.Element{tm("F"), tm("V137287")},
			KVPairs: []frame.KVPair{
				kv("FIGURE", tm("V137257")),
				kv("SCALE", tm("GREEN*1--07--00")),
			},
			TypeWord: []frame.Element{tm("GREEN"), tm("GREEN")},
		},
	}
}

func TestParse(t *testing.T) {
	got, err := Parse(grass)
	require.NoError(t, err)
	if diff := cmp.Diff(grassNodes(), got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []frame.FrameNode
	}{
		{
			name:  "single node",
			input: "(ONT::SPEECHACT ?s SA_TELL :CONTENT ?c)",
			want: []frame.FrameNode{{
				Positionals: []frame.Element{tm("SPEECHACT"), vr("?s"), tm("SA_TELL")},
				KVPairs:     []frame.KVPair{kv("CONTENT", vr("?c"))},
			}},
		},
		{
			name:  "concatenated nodes",
			input: "(F ?a) (F ?b)",
			want: []frame.FrameNode{
				{Positionals: []frame.Element{tm("F"), vr("?a")}},
				{Positionals: []frame.Element{tm("F"), vr("?b")}},
			},
		},
		{
			name:  "type word value",
			input: "((F V1 :MODALITY (:* DO DO)))",
			want: []frame.FrameNode{{
				Positionals: []frame.Element{tm("F"), tm("V1")},
				KVPairs:     []frame.KVPair{kv("MODALITY", tm("DO DO"))},
			}},
		},
		{
			name:  "variable type word",
			input: "(ONT::THE ?neutral (:* ONT::PLANT ?word-neutral))",
			want: []frame.FrameNode{{
				Positionals: []frame.Element{tm("THE"), vr("?neutral")},
				TypeWord:    []frame.Element{tm("PLANT"), vr("?word-neutral")},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "   "},
		{"unclosed", "((F V1 :A V2)"},
		{"extra close", "(F V1))"},
		{"missing value", "(F V1 :A)"},
		{"keyword as value", "(F V1 :A :B V2)"},
		{"duplicate role", "(F V1 :A V2 :A V3)"},
		{"one positional", "(F)"},
		{"stray atom", "F V1"},
		{"nested positional", "(F (V1 V2))"},
		{"empty type word", "(F V1 (:*))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMalformedInput), "got %v", err)
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	nodes := MustParse(grass)
	again, err := Parse(Format(nodes))
	require.NoError(t, err)
	if diff := cmp.Diff(nodes, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	withValue := MustParse("(F V1 :MODALITY (:* DO DO))")
	assert.Equal(t, "((F V1 :MODALITY (:* DO DO)))", Format(withValue))
}

func TestParseJSON(t *testing.T) {
	data, err := os.ReadFile("testdata/grass.json")
	require.NoError(t, err)

	got, err := ParseJSON(data)
	require.NoError(t, err)
	if diff := cmp.Diff(grassNodes(), got); diff != "" {
		t.Errorf("ParseJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONRoles(t *testing.T) {
	got, err := ParseJSON([]byte(`[{"?x": {"indicator": "F", "type": "WANT", "word": "WANT",
		"roles": {"AGENT": "?a", "THEME": "#V9"}}}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, vr("?x"), got[0].Identity())
	assert.Equal(t, []frame.KVPair{kv("AGENT", vr("?a")), kv("THEME", tm("V9"))}, got[0].KVPairs)
}

func TestParseJSONMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not an array", `{"V1": {}}`},
		{"no frames", `[{"root": "#V1"}]`},
		{"missing indicator", `[{"V1": {"type": "PLANT", "roles": {}}}]`},
		{"non-string role", `[{"V1": {"indicator": "F", "type": "PLANT", "roles": {"A": 3}}}]`},
		{"truncated", `[{"V1": {"indicator": "F"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMalformedInput), "got %v", err)
		})
	}
}
