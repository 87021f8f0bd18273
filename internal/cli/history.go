package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, replay and manage found paths",
		Long: `List the paths found so far, most recent first.

Entries are addressed by id; any unique prefix of an id is accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				entries := s.ws.History()
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				renderHistory(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many entries")

	cmd.AddCommand(newHistoryReplayCmd())
	cmd.AddCommand(newHistoryRemoveCmd())
	cmd.AddCommand(newHistoryClearCmd())
	cmd.AddCommand(newHistoryImportLegacyCmd())

	return cmd
}

// resolveHistoryID expands a unique id prefix to the full entry id.
func resolveHistoryID(entries []history.Entry, prefix string) (string, error) {
	var match string
	for _, e := range entries {
		if e.ID == prefix {
			return e.ID, nil
		}
		if strings.HasPrefix(e.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("history id %q is ambiguous", prefix)
			}
			match = e.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no history entry %q", prefix)
	}
	return match, nil
}

func newHistoryReplayCmd() *cobra.Command {
	var rerun bool

	cmd := &cobra.Command{
		Use:   "replay <id>",
		Short: "Show a recorded path again",
		Long: `Show a recorded path again. Both of its endpoints must still be in the
graph. The distance is re-measured when every hop still exists.

--rerun searches the current graph between the same endpoints instead and
records the result as a new entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				id, err := resolveHistoryID(s.ws.History(), args[0])
				if err != nil {
					return err
				}
				path, err := s.ws.Replay(id)
				if err != nil {
					return err
				}
				entry, _ := s.ws.HistoryEntry(id)
				out := cmd.OutOrStdout()

				if rerun {
					res, fresh, err := s.ws.Query(cmd.Context(), entry.Start, entry.End)
					if err != nil {
						return err
					}
					renderPath(out, res)
					if res.Distance != entry.Distance {
						fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Was %s when recorded", formatWeight(entry.Distance))))
					}
					fmt.Fprintf(out, "Saved as %s\n", shortID(fresh.ID))
					s.warnUnsaved(cmd.ErrOrStderr())
					return nil
				}

				fmt.Fprintf(out, "%s  (distance %s)\n", pathStyle.Render(strings.Join(path, " -> ")), formatWeight(entry.Distance))
				current, err := s.ws.PathLength(path)
				switch {
				case err != nil:
					fmt.Fprintln(out, warnStyle.Render("Some hops no longer exist in the graph"))
				case current != entry.Distance:
					fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Now %s on the current graph", formatWeight(current))))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&rerun, "rerun", false, "search again on the current graph")

	return cmd
}

func newHistoryRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete one recorded path",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				id, err := resolveHistoryID(s.ws.History(), args[0])
				if err != nil {
					return err
				}
				s.ws.RemoveHistory(cmd.Context(), id)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", shortID(id))
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				n := len(s.ws.History())
				if n == 0 {
					fmt.Fprintln(out, "History is already empty.")
					return nil
				}
				if !yes {
					ok, err := confirm(fmt.Sprintf("Delete all %d recorded paths?", n))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
				}
				s.ws.ClearHistory(cmd.Context())
				fmt.Fprintf(out, "Deleted %d entries\n", n)
				s.warnUnsaved(cmd.ErrOrStderr())
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func newHistoryImportLegacyCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-legacy <file>",
		Short: "Merge a pathHistory array saved by the browser version",
		Long: `Merge a pathHistory JSON array saved by the browser version of the
path finder. Entries already present are skipped, as are malformed ones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			return withSession(cmd, func(s *session) error {
				res, err := s.ws.MigrateLegacyHistory(cmd.Context(), f, dryRun)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				verb := "Migrated"
				if dryRun {
					verb = "Would migrate"
				}
				fmt.Fprintf(out, "%s %d of %d entries (%d skipped, %d duplicates)\n",
					verb, res.EntriesMigrated, res.EntriesScanned, res.EntriesSkipped, res.Duplicates)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without changing the history")

	return cmd
}

// confirm asks a yes/no question on the terminal.
func confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return ok, nil
}
