package repl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/lf"
	"github.com/duynguyendang/tripsim/pkg/service"
)

func HandleRules(s *Session, out io.Writer, arg string) {
	if arg == "" {
		fmt.Fprintln(out, "Usage: rules <logical form>")
		return
	}
	rules, err := lf.ParseRules(arg)
	if err != nil {
		printError(out, err)
		return
	}
	s.RulesText = arg
	fmt.Fprintf(out, "template set: %d rules, cardinality %d\n", len(rules), rules.Cardinality())
}

func HandleParse(svc *service.MatchService, s *Session, out io.Writer, arg string) {
	if arg == "" {
		fmt.Fprintln(out, "Usage: parse <logical form>")
		return
	}
	p, err := svc.ParseInput(arg, nil)
	if err != nil {
		printError(out, err)
		return
	}
	s.Parse, s.ParseText = p, arg
	fmt.Fprintf(out, "parse set: %d nodes\n", len(p))
}

// HandleMatch matches the session's template against its parse.
func HandleMatch(ctx context.Context, svc *service.MatchService, s *Session, out io.Writer) {
	if !s.Ready() {
		fmt.Fprintln(out, "set both rules and parse first")
		return
	}
	o, err := svc.Match(ctx, s.RulesText, s.Parse)
	if err != nil {
		printError(out, err)
		return
	}
	res := o.Result
	fmt.Fprintf(out, "score %.3f (%d/%d)\n", res.Score, res.Raw, res.Cardinality)
	for _, p := range res.Pairs {
		fmt.Fprintf(out, "  %s -> %s\n", o.Rules[p.Rule].Label(), o.Parse[p.Node].Label())
	}
	for _, b := range res.Bindings.All() {
		mark := ""
		if b.Conflicting() {
			mark = " (conflict)"
		}
		fmt.Fprintf(out, "  %s = %s%s\n", b.Variable, b.Value(), mark)
	}
	s.AddTurn(Turn{Command: "match", Score: res.Score})
}

// HandleGrade grades the session's parse against a catalogue.
func HandleGrade(ctx context.Context, svc *service.MatchService, s *Session, out io.Writer, name string) {
	if s.Parse == nil {
		fmt.Fprintln(out, "set a parse first")
		return
	}
	report, err := svc.Grade(ctx, name, nil, s.Parse)
	if err != nil {
		printError(out, err)
		return
	}
	for i, g := range report.Graded {
		mark := " "
		if i == report.Best {
			mark = "*"
		}
		if g.Result == nil {
			fmt.Fprintf(out, "%s %-30s -     %s\n", mark, g.Description, g.Error)
			continue
		}
		fmt.Fprintf(out, "%s %-30s %.3f\n", mark, g.Description, g.Score())
	}
	w := report.Winner()
	s.AddTurn(Turn{Command: "grade", Score: w.Score(), Winner: w.Description})
}

func HandleLookup(svc *service.MatchService, out io.Writer, name string) {
	if name == "" {
		fmt.Fprintln(out, "Usage: lookup <type>")
		return
	}
	info, err := svc.LookupType(strings.TrimPrefix(strings.ToUpper(name), "ONT::"))
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprintln(out, info.Name)
	if len(info.Ancestors) > 0 {
		fmt.Fprintf(out, "  is-a %s\n", strings.Join(info.Ancestors, " > "))
	}
	for _, a := range info.Arguments {
		fmt.Fprintf(out, "  :%s %s\n", a.Role, strings.Join(a.Restrictions, " "))
	}
}

func HandleShow(s *Session, out io.Writer) {
	fmt.Fprintf(out, "rules: %s\nparse: %s\n", orNone(s.RulesText), orNone(s.ParseText))
}

func HandleHistory(s *Session, out io.Writer) {
	if len(s.History) == 0 {
		fmt.Fprintln(out, "no history")
		return
	}
	for i, t := range s.History {
		if t.Winner != "" {
			fmt.Fprintf(out, "%d. %s %.3f %s\n", i+1, t.Command, t.Score, t.Winner)
			continue
		}
		fmt.Fprintf(out, "%d. %s %.3f\n", i+1, t.Command, t.Score)
	}
}

func printError(out io.Writer, err error) {
	fmt.Fprintf(out, "error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(out, "hint: %s\n", hint)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
