package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/export"
	"github.com/duynguyendang/tripsim/pkg/frame"
	"github.com/duynguyendang/tripsim/pkg/service"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatD3    = "d3"
)

type parseFlags struct {
	parse    string
	jsonForm bool
}

func (p *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.parse, "parse", "", "parse as logical-form text, or @file")
	cmd.Flags().BoolVar(&p.jsonForm, "json", false, "the parse is TRIPS web parser JSON")
	_ = cmd.MarkFlagRequired("parse")
}

func (p *parseFlags) read(cmd *cobra.Command, svc *service.MatchService) (frame.Parse, error) {
	text, err := readArg(cmd, p.parse)
	if err != nil {
		return nil, err
	}
	if p.jsonForm {
		return svc.ParseInput("", json.RawMessage(text))
	}
	return svc.ParseInput(text, nil)
}

func newMatchCmd(a *app) *cobra.Command {
	var (
		pf     parseFlags
		rules  string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match one template against a parse",
		Long: `Greedily maps template rules onto parse nodes and prints the score,
the mapping and the variable bindings.

Example:
  tripsim match --rules @templates/grass.lf --parse @parses/grass.lf
  tripsim match --rules @grass.lf --parse @grass.json --json --format d3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()

			parse, err := pf.read(cmd, svc)
			if err != nil {
				return err
			}
			text, err := readArg(cmd, rules)
			if err != nil {
				return err
			}
			res, err := svc.Match(cmd.Context(), text, parse)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(w, res.Result)
			case formatD3:
				g, err := svc.Graph(res)
				if err != nil {
					return err
				}
				if out != "" {
					return export.SaveD3Graph(g, out)
				}
				return writeJSON(w, g)
			case formatTable:
				return writeMatch(w, res)
			}
			return errors.Wrapf(errors.ErrInvalidInput, "unknown format %q", format)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&rules, "rules", "", "template as logical-form text, or @file")
	cmd.Flags().StringVar(&format, "format", formatTable, "table, json or d3")
	cmd.Flags().StringVar(&out, "out", "", "write the d3 graph to this file")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func writeMatch(w io.Writer, out *service.Outcome) error {
	res := out.Result
	fmt.Fprintf(w, "score %.3f (%d/%d)\n\n", res.Score, res.Raw, res.Cardinality)

	pairs := pterm.TableData{{"rule", "node"}}
	for _, p := range res.Pairs {
		pairs = append(pairs, []string{out.Rules[p.Rule].Label(), out.Parse[p.Node].Label()})
	}
	if err := writeTable(w, pairs); err != nil {
		return err
	}

	bindings := pterm.TableData{{"variable", "value", "rule", "conflict"}}
	for _, b := range res.Bindings.All() {
		rule := "-"
		if b.Rule >= 0 {
			rule = strconv.Itoa(b.Rule)
		}
		conflict := ""
		if b.Conflicting() {
			conflict = "yes"
		}
		bindings = append(bindings, []string{b.Variable.String(), b.Value().String(), rule, conflict})
	}
	return writeTable(w, bindings)
}

func writeTable(w io.Writer, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
