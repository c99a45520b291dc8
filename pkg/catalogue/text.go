package catalogue

import (
	"bufio"
	"io"
	"strings"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/lf"
)

// ParseText reads the line-oriented rule file format:
//
//	# statement that the grass is green
//	/ comment
//	((ONT::SPEECHACT ?sa SA_TELL :CONTENT ?c)
//	 (ONT::F ?c ...))
//	-
//
// A '#' line sets the description of the next entry, '/' lines are ignored,
// and a '-' line closes the entry. Any other line is logical-form text. An
// entry still open at the end of input is kept.
func ParseText(r io.Reader) ([]Entry, error) {
	var (
		entries     []Entry
		description string
		rule        strings.Builder
		ruleLine    int
	)
	flush := func() error {
		text := strings.TrimSpace(rule.String())
		if text == "" {
			return nil
		}
		rules, err := lf.ParseRules(text)
		if err != nil {
			return errors.Wrapf(err, "entry %q at line %d", description, ruleLine)
		}
		entries = append(entries, Entry{Description: description, Rules: rules})
		rule.Reset()
		description = ""
		return nil
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		switch {
		case strings.HasPrefix(text, "#"):
			description = strings.TrimSpace(strings.TrimPrefix(text, "#"))
		case strings.HasPrefix(text, "/"):
		case strings.HasPrefix(text, "-"):
			if err := flush(); err != nil {
				return nil, err
			}
		case strings.TrimSpace(text) == "":
		default:
			if rule.Len() == 0 {
				ruleLine = line
			}
			rule.WriteString(text)
			rule.WriteByte(' ')
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read catalogue")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteText renders entries in the format ParseText reads.
func WriteText(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if e.Description != "" {
			bw.WriteString("# " + e.Description + "\n")
		}
		bw.WriteString(e.Rules.String() + "\n-\n")
	}
	return bw.Flush()
}
