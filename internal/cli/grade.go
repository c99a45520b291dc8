package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/duynguyendang/tripsim/pkg/common/errors"
	"github.com/duynguyendang/tripsim/pkg/grader"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newGradeCmd(a *app) *cobra.Command {
	var (
		pf        parseFlags
		name      string
		templates string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Rank catalogue templates against a parse",
		Long: `Matches every template of a catalogue against the parse and reports
the best. Templates come from --templates, a stored catalogue named with
--catalogue, or the configured default catalogue file, in that order.`,
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
			report, err := func() (*grader.Report, error) {
				if templates == "" {
					return svc.Grade(cmd.Context(), name, nil, parse)
				}
				entries, err := loadEntries(templates)
				if err != nil {
					return nil, err
				}
				return svc.Grade(cmd.Context(), "", entries, parse)
			}()
			if err != nil {
				return err
			}

			switch format {
			case formatJSON:
				return writeJSON(cmd.OutOrStdout(), report)
			case formatTable:
				return writeReport(cmd.OutOrStdout(), report)
			}
			return errors.Wrapf(errors.ErrInvalidInput, "unknown format %q", format)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&name, "catalogue", "", "stored catalogue name")
	cmd.Flags().StringVar(&templates, "templates", "", "catalogue file to grade against")
	cmd.Flags().StringVar(&format, "format", formatTable, "table or json")
	return cmd
}

func writeReport(w io.Writer, r *grader.Report) error {
	data := pterm.TableData{{"", "#", "template", "score", "note"}}
	for i, g := range r.Graded {
		mark := ""
		if i == r.Best {
			mark = "*"
		}
		score, note := "-", g.Error
		if g.Result != nil {
			score = strconv.FormatFloat(g.Score(), 'f', 3, 64)
		}
		if g.Cached {
			note = "cached"
		}
		data = append(data, []string{mark, strconv.Itoa(g.Index), g.Description, score, note})
	}
	if err := writeTable(w, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "best: %s\n", r.Winner().Description)
	return err
}
