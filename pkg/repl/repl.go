// Package repl is an interactive loop for trying templates against parses.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/duynguyendang/tripsim/pkg/service"
)

const banner = `--- Interactive Match Mode ---
Commands:
  rules <lf>       set the template
  parse <lf>       set the parse
  match            match the template against the parse
  grade [name]     grade the parse against a catalogue (default when omitted)
  lookup <type>    show an ontology type
  show             print the current template and parse
  history          list recent scores
  exit | quit
`

// Run reads commands from in until EOF, exit or ctx is done.
func Run(ctx context.Context, svc *service.MatchService, in io.Reader, out io.Writer) error {
	fmt.Fprint(out, banner)
	session := NewSession()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(cmd) {
		case "exit", "quit":
			return nil
		case "rules":
			HandleRules(session, out, arg)
		case "parse":
			HandleParse(svc, session, out, arg)
		case "match":
			HandleMatch(ctx, svc, session, out)
		case "grade":
			HandleGrade(ctx, svc, session, out, arg)
		case "lookup":
			HandleLookup(svc, out, arg)
		case "show":
			HandleShow(session, out)
		case "history":
			HandleHistory(session, out)
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}
}
