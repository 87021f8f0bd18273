package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/graphfile"
)

func newGraphCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show, export, import or clear the whole graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				snap := s.ws.Snapshot()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), snap)
				}
				renderGraph(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print nodes and edges as JSON")

	cmd.AddCommand(newGraphExportCmd())
	cmd.AddCommand(newGraphImportCmd())
	cmd.AddCommand(newGraphSampleCmd())
	cmd.AddCommand(newGraphClearCmd())

	return cmd
}

func newGraphExportCmd() *cobra.Command {
	var (
		format string
		links  bool
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the graph as a definition file or export document",
		Long: `Write the graph to a file, or to stdout when no file is given.

The format follows the file extension (.yaml, .toml, .json) unless --format
is set. --links writes the {nodes, links} JSON export document instead, with
one link per traversal direction.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   graphfile.Format
				err error
			)
			switch {
			case format != "":
				f, err = graphfile.ParseFormat(format)
			case len(args) == 1 && !links:
				f, err = graphfile.FormatFromPath(args[0])
			default:
				f = graphfile.FormatYAML
			}
			if err != nil {
				return err
			}

			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					file, err := os.Create(args[0])
					if err != nil {
						return fmt.Errorf("create %s: %w", args[0], err)
					}
					defer file.Close()
					out = file
				}

				snap := s.ws.Snapshot()
				if links {
					err = writeJSON(out, snap.Export())
				} else {
					err = graphfile.Encode(out, graphfile.FromSnapshot(snap), f)
				}
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d nodes and %d edges to %s\n", len(snap.Nodes), len(snap.Edges), args[0])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "yaml, toml or json")
	cmd.Flags().BoolVar(&links, "links", false, "write the {nodes, links} export document")

	return cmd
}

func newGraphImportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Replace the graph with one or more definition files",
		Long: `Replace the graph with the contents of one or more definition files,
merged in order. Use - to read a single definition from stdin (--format
defaults to yaml). The current graph is kept if any file is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := readDefinitions(cmd.InOrStdin(), args, format)
			if err != nil {
				return err
			}
			snap, err := def.Snapshot()
			if err != nil {
				return err
			}
			return withSession(cmd, func(s *session) error {
				if err := s.ws.ReplaceGraph(cmd.Context(), snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d nodes and %d edges\n", len(snap.Nodes), len(snap.Edges))
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "format of stdin input: yaml, toml or json")

	return cmd
}

// readDefinitions loads the named files, or stdin for "-".
func readDefinitions(stdin io.Reader, args []string, format string) (*graphfile.Definition, error) {
	if len(args) == 1 && args[0] == "-" {
		f := graphfile.FormatYAML
		if format != "" {
			var err error
			if f, err = graphfile.ParseFormat(format); err != nil {
				return nil, err
			}
		}
		return graphfile.Decode(stdin, f)
	}
	return graphfile.LoadAll(args)
}

func newGraphSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Replace the graph with the European cities sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				s.ws.LoadSample(cmd.Context())
				st := s.ws.Stats()
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded sample graph (%d nodes, %d edges)\n", st.NodeCount, st.EdgeCount)
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newGraphClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every node and edge",
		Long:  `Remove every node and edge. The path history is kept.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				if !yes {
					st := s.ws.Stats()
					ok, err := confirm(fmt.Sprintf("Remove %d nodes and %d edges?", st.NodeCount, st.EdgeCount))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
				}
				s.ws.Clear(cmd.Context())
				fmt.Fprintln(out, "Graph cleared")
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}
