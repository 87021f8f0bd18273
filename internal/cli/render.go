package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/imyousuf/waypoint/internal/graph"
	"github.com/imyousuf/waypoint/internal/history"
	"github.com/imyousuf/waypoint/internal/pathfind"
)

// Style definitions shared by every command.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	labelStyle = lipgloss.NewStyle().
			Faint(true).
			Width(18)
	valueStyle = lipgloss.NewStyle()
	pathStyle  = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#0E7C3A", Dark: "#3FD37A"})
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"})
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

const (
	oneWayArrow = "->"
	bothArrow   = "<->"
)

func printSection(out io.Writer, title string) {
	fmt.Fprintf(out, "  %s\n", headerStyle.Render(title))
}

func printKV(out io.Writer, label, value string) {
	fmt.Fprintf(out, "    %s%s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func boolYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatWeight prints weights without trailing zeros.
func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func arrow(bidirectional bool) string {
	if bidirectional {
		return bothArrow
	}
	return oneWayArrow
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			return cellStyle
		})
}

// renderGraph prints the nodes and edges of snap.
func renderGraph(out io.Writer, snap graph.Snapshot) {
	st := graph.StatsOf(snap)
	printSection(out, "Graph")
	printKV(out, "Nodes", strconv.Itoa(st.NodeCount))
	printKV(out, "Edges", fmt.Sprintf("%d (%d one-way, %d bidirectional)", st.EdgeCount, st.OneWayCount, st.BidirectionalCount))
	fmt.Fprintln(out)

	if len(snap.Nodes) == 0 {
		fmt.Fprintln(out, "  (empty graph)")
		return
	}

	degree := make(map[string]int, len(snap.Nodes))
	for _, e := range snap.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	nodes := newTable("Node", "Color", "Edges")
	for _, n := range snap.Nodes {
		color := n.Color
		if color == "" {
			color = "-"
		}
		nodes.Row(n.ID, color, strconv.Itoa(degree[n.ID]))
	}
	fmt.Fprintln(out, nodes.String())

	if len(snap.Edges) == 0 {
		return
	}
	edges := newTable("Source", "", "Target", "Weight")
	for _, e := range snap.Edges {
		edges.Row(e.Source, arrow(e.Bidirectional), e.Target, formatWeight(e.Weight))
	}
	fmt.Fprintln(out, edges.String())
}

// renderPath prints a found path with its steps.
func renderPath(out io.Writer, res *pathfind.Result) {
	fmt.Fprintf(out, "%s  (distance %s)\n", pathStyle.Render(strings.Join(res.Path, " -> ")), formatWeight(res.Distance))
	if len(res.Steps) == 0 {
		return
	}
	steps := newTable("#", "From", "", "To", "Weight")
	for i, s := range res.Steps {
		steps.Row(strconv.Itoa(i+1), s.From, arrow(s.Bidirectional), s.To, formatWeight(s.Weight))
	}
	fmt.Fprintln(out, steps.String())
	if verbose {
		fmt.Fprintf(out, "Visited %d nodes: %s\n", len(res.Visited), strings.Join(res.Visited, ", "))
	}
}

// shortID trims a history id for display; any unique prefix is accepted
// back by the history commands.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderHistory prints ledger entries, most recent first.
func renderHistory(out io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No paths recorded yet.")
		return
	}
	t := newTable("ID", "When", "Route", "Distance", "Hops")
	for _, e := range entries {
		t.Row(
			shortID(e.ID),
			e.CreatedAt.Local().Format(time.DateTime),
			strings.Join(e.Path, " -> "),
			formatWeight(e.Distance),
			strconv.Itoa(len(e.Path)-1),
		)
	}
	fmt.Fprintln(out, t.String())
}
