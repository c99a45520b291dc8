package cli

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newOntologyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Inspect the loaded ontology",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lookup NAME",
		Short: "Show a type's ancestors and argument restrictions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()

			info, err := svc.LookupType(typeName(args[0]))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, info.Name)
			if len(info.Ancestors) > 0 {
				fmt.Fprintf(w, "  is-a %s\n", strings.Join(info.Ancestors, " > "))
			}
			if len(info.Arguments) == 0 {
				return nil
			}
			data := pterm.TableData{{"role", "restrictions", "optionality"}}
			for _, arg := range info.Arguments {
				data = append(data, []string{arg.Role, strings.Join(arg.Restrictions, ", "), arg.Optionality})
			}
			return writeTable(w, data)
		},
	}, &cobra.Command{
		Use:   "distance A B",
		Short: "Count the hierarchy edges between two types",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()

			d, err := svc.Distance(typeName(args[0]), typeName(args[1]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), d)
			return err
		},
	})
	return cmd
}

func typeName(s string) string {
	return strings.TrimPrefix(strings.ToUpper(s), "ONT::")
}
