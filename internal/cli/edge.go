package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newEdgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Add, update or remove weighted edges",
	}

	cmd.AddCommand(newEdgeAddCmd())
	cmd.AddCommand(newEdgeWeightCmd())
	cmd.AddCommand(newEdgeDirectionCmd())
	cmd.AddCommand(newEdgeRemoveCmd())

	return cmd
}

func parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	return w, nil
}

func newEdgeAddCmd() *cobra.Command {
	var both bool

	cmd := &cobra.Command{
		Use:   "add <source> <target> <weight>",
		Short: "Add an edge, or update the weight of an existing one",
		Long: `Add an edge from source to target. Missing endpoints are created.

If an edge already joins the two nodes its weight is updated. --both turns a
one-way edge into a bidirectional one; use 'edge direction' to go back.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseWeight(args[2])
			if err != nil {
				return err
			}
			return withSession(cmd, func(s *session) error {
				e, err := s.ws.Connect(cmd.Context(), args[0], args[1], weight, both)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s  (%s)\n", e.Source, arrow(e.Bidirectional), e.Target, formatWeight(e.Weight))
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&both, "both", "b", false, "make the edge bidirectional")

	return cmd
}

func newEdgeWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <source> <target> <weight>",
		Short: "Change the weight of an existing edge",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseWeight(args[2])
			if err != nil {
				return err
			}
			return withSession(cmd, func(s *session) error {
				if err := s.ws.SetEdgeWeight(cmd.Context(), args[0], args[1], weight); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s -> %s weight to %s\n", args[0], args[1], formatWeight(weight))
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newEdgeDirectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "direction <source> <target> <one-way|both>",
		Short: "Make an edge one-way or bidirectional",
		Long: `Switch the edge joining source and target between one-way and
bidirectional. A one-way edge keeps the orientation source -> target.`,
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"one-way", "both"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var bidi bool
			switch args[2] {
			case "both", "bidirectional":
				bidi = true
			case "one-way", "oneway":
			default:
				return fmt.Errorf("direction must be 'one-way' or 'both', got %q", args[2])
			}
			return withSession(cmd, func(s *session) error {
				if err := s.ws.SetEdgeDirection(cmd.Context(), args[0], args[1], bidi); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[0], arrow(bidi), args[1])
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newEdgeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <source> <target>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove an edge",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				if !s.ws.RemoveEdge(cmd.Context(), args[0], args[1]) {
					return fmt.Errorf("no edge %s -> %s", args[0], args[1])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed edge %s -> %s\n", args[0], args[1])
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}
