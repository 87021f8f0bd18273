package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/config"
	"github.com/imyousuf/waypoint/internal/graphfile"
	"github.com/imyousuf/waypoint/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [file]...",
		Short: "Keep the graph in sync with definition files",
		Long: `Load the graph from one or more definition files, then reload it every
time one of them changes. Without arguments the files listed in
watch.files are used, relative to the workspace root.

An invalid file is reported and the current graph is kept until it is
fixed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				files := resolveWatchFiles(s.cfg, args)
				if len(files) == 0 {
					return fmt.Errorf("no files to watch; pass them as arguments or set watch.files")
				}
				if debounce == 0 {
					debounce = time.Duration(s.cfg.Watch.DebounceMS) * time.Millisecond
				}

				ctx, cancel := signalContext(cmd)
				defer cancel()

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Watching %d files...\n", len(files))
				for _, f := range files {
					fmt.Fprintf(out, "  %s\n", f)
				}

				if err := watchFiles(ctx, s, files, debounce, out); err != nil {
					return err
				}

				st := s.ws.Stats()
				fmt.Fprintf(out, "\nFinal graph: %d nodes, %d edges\n", st.NodeCount, st.EdgeCount)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before reloading (default: watch.debounce_ms)")

	return cmd
}

// resolveWatchFiles returns args, or the configured watch files resolved
// against the workspace root.
func resolveWatchFiles(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	root := "."
	if cfg.ConfigDir != "" {
		root = filepath.Dir(cfg.ConfigDir)
	}
	files := make([]string, 0, len(cfg.Watch.Files))
	for _, f := range cfg.Watch.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		files = append(files, f)
	}
	return files
}

// applyFiles replaces the workspace graph with the merged files.
func applyFiles(ctx context.Context, s *session, files []string) error {
	def, err := graphfile.LoadAll(files)
	if err != nil {
		return err
	}
	snap, err := def.Snapshot()
	if err != nil {
		return err
	}
	return s.ws.ReplaceGraph(ctx, snap)
}

// watchFiles loads files into the workspace and reloads them on change
// until ctx is cancelled.
func watchFiles(ctx context.Context, s *session, files []string, debounce time.Duration, out io.Writer) error {
	if err := applyFiles(ctx, s, files); err != nil {
		fmt.Fprintf(out, "Initial load failed, keeping current graph: %v\n", err)
	} else {
		st := s.ws.Stats()
		fmt.Fprintf(out, "Loaded %d nodes, %d edges\n", st.NodeCount, st.EdgeCount)
	}

	w, err := watcher.NewWatcher(watcher.WatcherConfig{
		Files:    files,
		Debounce: debounce,
		Logger:   s.logger,
	})
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	events, err := w.Start(ctx)
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}

	for ev := range events {
		s.logger.Debug("graph file changed", "path", ev.Path, "op", ev.Op.String())
		if err := applyFiles(ctx, s, files); err != nil {
			fmt.Fprintf(out, "%s: reload failed, keeping current graph: %v\n", filepath.Base(ev.Path), err)
			continue
		}
		st := s.ws.Stats()
		fmt.Fprintf(out, "%s %s: reloaded %d nodes, %d edges\n",
			ev.Time.Format(time.TimeOnly), filepath.Base(ev.Path), st.NodeCount, st.EdgeCount)
		s.warnUnsaved(out)
	}
	return nil
}
