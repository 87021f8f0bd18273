package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Write the saved graph and history to a backup file",
		Long: `Write the saved graph and path history as JSON lines, to a file or to
stdout. Restore it with 'waypoint restore'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				var out io.Writer = cmd.OutOrStdout()
				if len(args) == 1 {
					f, err := os.Create(args[0])
					if err != nil {
						return fmt.Errorf("create %s: %w", args[0], err)
					}
					defer f.Close()
					out = f
				}
				if err := s.ws.Backup(cmd.Context(), out); err != nil {
					return fmt.Errorf("backup: %w", err)
				}
				if len(args) == 1 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Backup written to %s\n", args[0])
				}
				return nil
			})
		},
	}
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the graph and history with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			return withSession(cmd, func(s *session) error {
				if err := s.ws.Restore(cmd.Context(), in); err != nil {
					return fmt.Errorf("restore: %w", err)
				}
				st := s.ws.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d nodes, %d edges and %d history entries\n",
					st.NodeCount, st.EdgeCount, len(s.ws.History()))
				return nil
			})
		},
	}
}
