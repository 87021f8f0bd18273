package cli

import (
	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  `Commands for running the MCP (Model Context Protocol) server.`,
	}

	mcpCmd.AddCommand(newMCPServeCmd())
	return mcpCmd
}

func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Long: `Start a JSON-RPC 2.0 MCP server over stdin/stdout.

The server exposes the workspace graph, shortest-path search and path history
as tools. It reads requests from stdin and writes responses to stdout, one
JSON object per line. Logs go to stderr; pass -v to log each tool call.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				registry := mcp.NewWorkspaceRegistry(s.ws)
				registry.SetLogger(s.logger)

				ctx, stop := signalContext(cmd)
				defer stop()

				s.logger.Info("mcp server started", "tools", len(registry.Names()))
				server := mcp.NewServerWithIO(registry, cmd.InOrStdin(), cmd.OutOrStdout()).WithVersion(Version)
				return server.Run(ctx)
			})
		},
	}
}
