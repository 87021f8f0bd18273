package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  show                         print the graph
  add <id>...                  add nodes
  rm <id>...                   remove nodes and their edges
  rename <old> <new>           rename a node
  edge <a> <b> <weight> [both] add or update an edge
  unlink <a> <b>               remove an edge
  path [<start> <end>]         find a shortest path (asks when omitted)
  history                      list found paths
  replay <id>                  show a found path again
  sample                       load the sample graph
  clear                        remove every node and edge
  help                         show this help
  quit                         leave the shell`

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session on one workspace",
		Long: `Start an interactive session that keeps the workspace open between
commands. Useful with --memory for throwaway experiments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				return runShell(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

// runShell reads commands from in until EOF or quit.
func runShell(ctx context.Context, s *session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, headerStyle.Render("Waypoint shell")+"  (type 'help' for commands)")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := shellExec(ctx, s, fields, out); err != nil {
			fmt.Fprintln(out, warnStyle.Render("Error: "+err.Error()))
		}
	}
}

func shellExec(ctx context.Context, s *session, fields []string, out io.Writer) error {
	name, args := fields[0], fields[1:]
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s needs %d arguments; type 'help'", name, n)
		}
		return nil
	}

	switch name {
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
	case "show", "graph":
		renderGraph(out, s.ws.Snapshot())
	case "add":
		if err := need(1); err != nil {
			return err
		}
		for _, id := range args {
			if s.ws.AddNode(ctx, id) {
				fmt.Fprintf(out, "Added node %s\n", id)
			}
		}
	case "rm":
		if err := need(1); err != nil {
			return err
		}
		for _, id := range args {
			if !s.ws.RemoveNode(ctx, id) {
				return fmt.Errorf("no node %s", id)
			}
		}
	case "rename":
		if err := need(2); err != nil {
			return err
		}
		return s.ws.RenameNode(ctx, args[0], args[1])
	case "edge":
		if err := need(3); err != nil {
			return err
		}
		w, err := parseWeight(args[2])
		if err != nil {
			return err
		}
		both := len(args) > 3 && args[3] == "both"
		e, err := s.ws.Connect(ctx, args[0], args[1], w, both)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s %s  (%s)\n", e.Source, arrow(e.Bidirectional), e.Target, formatWeight(e.Weight))
	case "unlink":
		if err := need(2); err != nil {
			return err
		}
		if !s.ws.RemoveEdge(ctx, args[0], args[1]) {
			return fmt.Errorf("no edge %s -> %s", args[0], args[1])
		}
	case "path":
		start, end, err := shellEndpoints(s, args)
		if err != nil {
			return err
		}
		res, entry, err := s.ws.Query(ctx, start, end)
		if err != nil {
			return err
		}
		renderPath(out, res)
		fmt.Fprintf(out, "Saved as %s\n", shortID(entry.ID))
	case "history":
		renderHistory(out, s.ws.History())
	case "replay":
		if err := need(1); err != nil {
			return err
		}
		id, err := resolveHistoryID(s.ws.History(), args[0])
		if err != nil {
			return err
		}
		path, err := s.ws.Replay(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, pathStyle.Render(strings.Join(path, " -> ")))
	case "sample":
		s.ws.LoadSample(ctx)
		renderGraph(out, s.ws.Snapshot())
	case "clear":
		s.ws.Clear(ctx)
	default:
		return fmt.Errorf("unknown command %q; type 'help'", name)
	}
	s.warnUnsaved(out)
	return nil
}

// shellEndpoints returns the path endpoints from args, or asks for them.
func shellEndpoints(s *session, args []string) (string, string, error) {
	if len(args) >= 2 {
		return args[0], args[1], nil
	}
	ids := s.ws.Snapshot().NodeIDs()
	if len(ids) < 2 {
		return "", "", errors.New("the graph needs at least two nodes")
	}

	var start, end string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Start").
				Options(huh.NewOptions(ids...)...).
				Value(&start),
			huh.NewSelect[string]().
				Title("End").
				Options(huh.NewOptions(ids...)...).
				Value(&end),
		),
	).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		return "", "", fmt.Errorf("choose endpoints: %w", err)
	}
	return start, end, nil
}
