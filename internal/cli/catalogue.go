package cli

import (
	"fmt"

	"github.com/duynguyendang/tripsim/pkg/catalogue"
	"github.com/duynguyendang/tripsim/pkg/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func loadEntries(path string) ([]catalogue.Entry, error) {
	return catalogue.LoadFile(path)
}

func newCatalogueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Manage stored template catalogues",
	}
	cmd.AddCommand(newCatalogueImportCmd(a), newCatalogueListCmd(a), newCatalogueShowCmd(a))
	return cmd
}

func newCatalogueImportCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Import a text or YAML catalogue file into a stored catalogue",
		Long: `Creates the catalogue if needed and stores every entry of FILE.
Entries whose description is already stored are replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadEntries(args[1])
			if err != nil {
				return err
			}
			_, mgr, closeAll, err := a.service(false)
			if err != nil {
				return err
			}
			defer closeAll()

			st, err := mgr.Create(args[0], description)
			if err != nil {
				return err
			}
			n, err := st.PutAll(entries)
			if err != nil {
				return err
			}
			log := logger.Named("cli")
			log.Infow("catalogue imported", logger.FieldCatalogue, args[0], logger.FieldCount, n)
			w := cmd.OutOrStdout()
			for _, d := range catalogue.Duplicates(entries) {
				log.Warnw("duplicate template", logger.FieldCatalogue, args[0], "first", d.First, "second", d.Second)
				fmt.Fprintf(w, "warning: %q repeats the rules of %q\n", d.Second, d.First)
			}
			_, err = fmt.Fprintf(w, "imported %d entries into %s\n", n, args[0])
			return err
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "catalogue description")
	return cmd
}

func newCatalogueListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored catalogues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()

			list, err := svc.Catalogues()
			if err != nil {
				return err
			}
			data := pterm.TableData{{"name", "description"}}
			for _, m := range list {
				data = append(data, []string{m.Name, m.Description})
			}
			return writeTable(cmd.OutOrStdout(), data)
		},
	}
}

func newCatalogueShowCmd(a *app) *cobra.Command {
	var yamlOut bool
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a stored catalogue in the line format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()

			entries, err := svc.CatalogueEntries(args[0])
			if err != nil {
				return err
			}
			if yamlOut {
				return catalogue.WriteYAML(cmd.OutOrStdout(), entries)
			}
			return catalogue.WriteText(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "print as YAML")
	return cmd
}
