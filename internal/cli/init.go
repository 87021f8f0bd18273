package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/config"
	"github.com/imyousuf/waypoint/internal/workspace"
)

// initOptions are the answers that shape a new workspace.
type initOptions struct {
	name       string
	backend    string
	maxEntries int
	sample     bool
}

func newInitCmd() *cobra.Command {
	var (
		opts        initOptions
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a .waypoint/ workspace directory",
		Long: `Initialize a Waypoint workspace in the current directory.

Creates a .waypoint/ directory containing:
  config.yaml    Workspace configuration
  db/            Graph and path history database

The workspace is also registered in ~/.waypoint.conf so it can be opened
from anywhere with --workspace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			if opts.name == "" {
				opts.name = filepath.Base(cwd)
			}
			if interactive {
				ok, err := runInitForm(&opts)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			return initWorkspace(cmd, cwd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "workspace name (default: directory name)")
	cmd.Flags().StringVar(&opts.backend, "backend", "badger", "storage backend: badger or memory")
	cmd.Flags().IntVar(&opts.maxEntries, "history-limit", 0, "maximum stored paths (0 keeps all)")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "load the European cities sample graph")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "answer setup questions interactively")

	return cmd
}

func initWorkspace(cmd *cobra.Command, root string, opts initOptions) error {
	projectDir := filepath.Join(root, config.ProjectDirName)
	if _, err := os.Stat(projectDir); err == nil {
		return fmt.Errorf("%s already exists; workspace is already initialized", projectDir)
	}

	cfg := config.Default()
	cfg.Project.Name = opts.name
	cfg.Storage.Backend = opts.backend
	cfg.History.MaxEntries = opts.maxEntries
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}

	out := cmd.OutOrStdout()

	configPath := filepath.Join(projectDir, config.ProjectConfigFile)
	if err := config.WriteConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	fmt.Fprintf(out, "Created %s\n", configPath)

	if opts.sample && cfg.Storage.Backend == "badger" {
		cfg.ConfigDir = projectDir
		ws, err := workspace.Open(cmd.Context(), workspace.Options{
			DBPath: cfg.ResolveDBPath(""),
			Logger: newLogger(cmd.ErrOrStderr(), cfg),
		})
		if err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
		ws.LoadSample(cmd.Context())
		st := ws.Stats()
		if err := ws.Close(); err != nil {
			return fmt.Errorf("close workspace: %w", err)
		}
		fmt.Fprintf(out, "Loaded sample graph (%d nodes, %d edges)\n", st.NodeCount, st.EdgeCount)
	}

	if err := config.RegisterWorkspace(opts.name, root, projectDir); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to register workspace in %s: %v\n", config.RegistryPath(), err)
	} else {
		fmt.Fprintf(out, "Registered workspace %q in %s\n", opts.name, config.RegistryPath())
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Add nodes and edges:  waypoint edge add Paris London 344 --both")
	fmt.Fprintln(out, "  2. Find a path:          waypoint path Paris London")
	fmt.Fprintln(out, "  3. Add to .gitignore:")
	fmt.Fprintln(out, "       .waypoint/db/")

	return nil
}

// runInitForm asks for the workspace options. It reports false when the
// user cancels.
func runInitForm(opts *initOptions) (bool, error) {
	maxEntries := strconv.Itoa(opts.maxEntries)
	confirm := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Workspace name").
				Value(&opts.name).
				Validate(requireNonEmpty("workspace name")),
			huh.NewSelect[string]().
				Title("Storage").
				Options(
					huh.NewOption("On disk (Badger)", "badger"),
					huh.NewOption("In memory (nothing is saved)", "memory"),
				).
				Value(&opts.backend),
			huh.NewInput().
				Title("History limit").
				Description("0 keeps every path").
				Value(&maxEntries).
				Validate(validateNonNegativeInt),
		).Title("Workspace"),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Load the sample graph?").
				Description("Ten European cities joined by flight distances in km").
				Value(&opts.sample).
				Affirmative("Yes").
				Negative("No"),
		).Title("Graph").
			WithHideFunc(func() bool { return opts.backend != "badger" }),

		huh.NewGroup(
			huh.NewNote().
				Title("Summary").
				DescriptionFunc(func() string {
					return fmt.Sprintf(
						"Name:      %s\n"+
							"Storage:   %s\n"+
							"History:   %s\n"+
							"Sample:    %v",
						opts.name, opts.backend, maxEntries, opts.sample,
					)
				}, opts),
			huh.NewConfirm().
				Title("Create workspace?").
				Value(&confirm).
				Affirmative("Create").
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("interactive init: %w", err)
	}
	opts.name = strings.TrimSpace(opts.name)
	opts.maxEntries, _ = strconv.Atoi(strings.TrimSpace(maxEntries))
	return confirm, nil
}
