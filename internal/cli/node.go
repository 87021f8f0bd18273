package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Add, rename, color, move or remove nodes",
	}

	cmd.AddCommand(newNodeAddCmd())
	cmd.AddCommand(newNodeRenameCmd())
	cmd.AddCommand(newNodeRemoveCmd())
	cmd.AddCommand(newNodeColorCmd())
	cmd.AddCommand(newNodeMoveCmd())

	return cmd
}

func newNodeAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id>...",
		Short: "Add one or more nodes",
		Long: `Add one or more nodes. Adding a node that already exists does nothing;
empty ids are ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					switch {
					case id == "":
						continue
					case s.ws.AddNode(cmd.Context(), id):
						fmt.Fprintf(out, "Added node %s\n", id)
					default:
						fmt.Fprintf(out, "Node %s already exists\n", id)
					}
				}
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newNodeRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a node, keeping its edges",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				if err := s.ws.RenameNode(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newNodeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove nodes and every edge touching them",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				missing := 0
				for _, id := range args {
					if s.ws.RemoveNode(cmd.Context(), id) {
						fmt.Fprintf(out, "Removed node %s\n", id)
					} else {
						fmt.Fprintf(out, "No node %s\n", id)
						missing++
					}
				}
				s.warnUnsaved(cmd.ErrOrStderr())
				if missing == len(args) {
					return fmt.Errorf("no matching nodes")
				}
				return nil
			})
		},
	}
}

func newNodeColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <id> <color>",
		Short: "Set a node's display color, or clear it with \"\"",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				if err := s.ws.SetNodeColor(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Colored %s %s\n", args[0], args[1])
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newNodeMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <x> <y>",
		Short: "Set a node's layout position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q: %w", args[1], err)
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q: %w", args[2], err)
			}
			return withSession(cmd, func(s *session) error {
				if err := s.ws.SetNodePosition(cmd.Context(), args[0], x, y); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to (%s, %s)\n", args[0], formatWeight(x), formatWeight(y))
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}
