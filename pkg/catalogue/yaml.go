package catalogue

import (
	"io"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Entries []yamlEntry `yaml:"entries"`
}

type yamlEntry struct {
	Description string `yaml:"description"`
	Rules       string `yaml:"rules"`
}

// ParseYAML reads a catalogue of the form
//
//	entries:
//	  - description: statement that the grass is green
//	    rules: |
//	      ((ONT::SPEECHACT ?sa SA_TELL :CONTENT ?c) ...)
func ParseYAML(r io.Reader) ([]Entry, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrapf(errors.ErrMalformedInput, "catalogue yaml: %v", err)
	}

	entries := make([]Entry, 0, len(f.Entries))
	for i, e := range f.Entries {
		rules, err := lf.ParseRules(e.Rules)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d (%s)", i, e.Description)
		}
		entries = append(entries, Entry{Description: e.Description, Rules: rules})
	}
	return entries, nil
}

// WriteYAML renders entries in the format ParseYAML reads.
func WriteYAML(w io.Writer, entries []Entry) error {
	f := yamlFile{Entries: make([]yamlEntry, len(entries))}
	for i, e := range entries {
		f.Entries[i] = yamlEntry{Description: e.Description, Rules: e.Rules.String()}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return errors.Wrap(err, "encode catalogue yaml")
	}
	return enc.Close()
}
