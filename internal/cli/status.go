package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace, graph and history status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				st := s.ws.Stats()
				entries := s.ws.History()

				fmt.Fprintln(out, headerStyle.Render("Waypoint Status"))
				fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 15)))
				fmt.Fprintln(out)

				printSection(out, "Workspace")
				name := s.cfg.Project.Name
				if name == "" {
					name = "(unnamed)"
				}
				printKV(out, "Name", name)
				storage := "in memory"
				if !s.ws.Ephemeral() {
					storage = s.cfg.ResolveDBPath(dbPathFlag)
				}
				printKV(out, "Storage", storage)
				fmt.Fprintln(out)

				printSection(out, "Graph")
				printKV(out, "Nodes", fmt.Sprint(st.NodeCount))
				printKV(out, "One-way edges", fmt.Sprint(st.OneWayCount))
				printKV(out, "Bidirectional", fmt.Sprint(st.BidirectionalCount))
				fmt.Fprintln(out)

				printSection(out, "History")
				printKV(out, "Entries", fmt.Sprint(len(entries)))
				if len(entries) > 0 {
					last := entries[0]
					printKV(out, "Latest", fmt.Sprintf("%s -> %s (%s)", last.Start, last.End, formatWeight(last.Distance)))
				}
				fmt.Fprintln(out)
				return nil
			})
		},
	}
}
