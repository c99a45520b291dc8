package cli

import (
	mcpserver "github.com/duynguyendang/tripsim/pkg/mcp"
	"github.com/duynguyendang/tripsim/pkg/repl"
	"github.com/duynguyendang/tripsim/pkg/server"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()
			return server.NewServer(svc).Run(a.cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address, e.g. :8080")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the match tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()
			return mcpserver.Run(cmd.Context(), svc)
		},
	}
}

func newREPLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Try templates against parses interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, closeAll, err := a.service(true)
			if err != nil {
				return err
			}
			defer closeAll()
			return repl.Run(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
