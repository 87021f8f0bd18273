package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/config"
)

func newWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "List or forget registered workspaces",
		Long: `List the workspaces registered in ~/.waypoint.conf. Any of them can be
opened from anywhere with --workspace <name>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			entries := config.ListWorkspaces()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No workspaces registered in %s\n", config.RegistryPath())
				return nil
			}
			t := newTable("Name", "Root")
			for _, e := range entries {
				t.Row(e.Name, e.Root)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove", "forget"},
		Short:   "Forget a workspace; its files are left alone",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.UnregisterWorkspace(args[0])
			if err != nil {
				return fmt.Errorf("update registry: %w", err)
			}
			if !removed {
				return fmt.Errorf("workspace %q is not registered", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot workspace %s\n", args[0])
			return nil
		},
	})

	return cmd
}
