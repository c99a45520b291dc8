// Package catalogue loads and stores named template rule sets.
package catalogue

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/grader"
)

// Entry is a rule set and the meaning it stands for.
type Entry struct {
	Description string
	Rules       frame.RuleSet
}

// Candidates converts entries for grading, keeping their order.
func Candidates(entries []Entry) []grader.Candidate {
	out := make([]grader.Candidate, len(entries))
	for i, e := range entries {
		out[i] = grader.Candidate{Description: e.Description, Rules: e.Rules}
	}
	return out
}

// Duplicate names a later entry whose rules equal an earlier entry's, role
// order aside.
type Duplicate struct {
	First, Second string
}

// Duplicates lists entries repeating an earlier entry's rule set.
func Duplicates(entries []Entry) []Duplicate {
	seen := make(map[uint64][]int, len(entries))
	var out []Duplicate
next:
	for i, e := range entries {
		fp := e.Rules.Fingerprint()
		for _, j := range seen[fp] {
			if entries[j].Rules.Equal(e.Rules) {
				out = append(out, Duplicate{First: entries[j].Description, Second: e.Description})
				continue next
			}
		}
		seen[fp] = append(seen[fp], i)
	}
	return out
}

// LoadFile reads a catalogue file. Files ending in .yaml or .yml are read as
// YAML, anything else as the line format of ParseText.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "catalogue %s", path)
		}
		return nil, errors.Wrapf(err, "open catalogue %s", path)
	}
	defer f.Close()

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		entries, err = ParseYAML(f)
	default:
		entries, err = ParseText(f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "catalogue %s", path)
	}
	return entries, nil
}
