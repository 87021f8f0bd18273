package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/pathfind"
)

// pathOutput is the --json form of a path query.
type pathOutput struct {
	*pathfind.Result
	HistoryID string `json:"history_id"`
}

func newPathCmd() *cobra.Command {
	var (
		asJSON   bool
		noRecord bool
	)

	cmd := &cobra.Command{
		Use:   "path <start> <end>",
		Short: "Find the shortest path between two nodes",
		Long: `Find the shortest path from start to end and record it in the history.

Edges are followed in their direction; bidirectional edges both ways.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				if noRecord {
					res, err := s.ws.ShortestPath(args[0], args[1])
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(out, pathOutput{Result: res})
					}
					renderPath(out, res)
					return nil
				}

				res, entry, err := s.ws.Query(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, pathOutput{Result: res, HistoryID: entry.ID})
				}
				renderPath(out, res)
				fmt.Fprintf(out, "Saved as %s\n", shortID(entry.ID))
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not add the path to the history")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
