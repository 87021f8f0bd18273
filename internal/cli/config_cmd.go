package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/imyousuf/waypoint/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit workspace configuration",
		Long: `View or edit Waypoint workspace configuration.

By default, displays the current configuration in a pretty-printed format.
Use 'config edit' to edit configuration interactively.`,
		RunE: runConfigView,
	}

	cmd.AddCommand(newConfigEditCmd())

	return cmd
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	fmt.Fprintln(out, headerStyle.Render("Waypoint Configuration"))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 22)))
	fmt.Fprintln(out)

	printSection(out, "Workspace")
	printKV(out, "Name", cfg.Project.Name)
	if cfg.ConfigDir != "" {
		printKV(out, "Config dir", cfg.ConfigDir)
	} else {
		printKV(out, "Config dir", "(none, using defaults)")
	}
	fmt.Fprintln(out)

	printSection(out, "Storage")
	printKV(out, "Backend", cfg.Storage.Backend)
	if dbPath := cfg.ResolveDBPath(dbPathFlag); dbPath != "" && cfg.Storage.Backend != "memory" {
		printKV(out, "DB Path", dbPath)
	}
	fmt.Fprintln(out)

	printSection(out, "History")
	limit := "unlimited"
	if cfg.History.MaxEntries > 0 {
		limit = strconv.Itoa(cfg.History.MaxEntries)
	}
	printKV(out, "Max entries", limit)
	fmt.Fprintln(out)

	printSection(out, "Logging")
	printKV(out, "Level", cfg.Logging.Level)
	printKV(out, "Format", cfg.Logging.Format)
	printKV(out, "Caller", boolYesNo(cfg.Logging.IncludeCaller))
	fmt.Fprintln(out)

	printSection(out, "Server")
	printKV(out, "Address", cfg.Server.Addr)
	printKV(out, "Metrics", boolYesNo(cfg.Server.Metrics))
	fmt.Fprintln(out)

	printSection(out, "Watch")
	printKV(out, "Debounce", fmt.Sprintf("%dms", cfg.Watch.DebounceMS))
	if len(cfg.Watch.Files) == 0 {
		fmt.Fprintln(out, "    (no files)")
	}
	for _, f := range cfg.Watch.Files {
		fmt.Fprintf(out, "    %s\n", f)
	}
	fmt.Fprintln(out)

	return nil
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit workspace configuration interactively",
		Long:  `Edit Waypoint workspace configuration using an interactive form.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigEdit(cmd)
		},
	}
}

func runConfigEdit(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.ConfigDir == "" {
		return fmt.Errorf("no workspace config found; run 'waypoint init' first")
	}

	out := cmd.OutOrStdout()

	// Pre-fill form variables from existing config
	name := cfg.Project.Name
	backend := cfg.Storage.Backend
	maxEntries := strconv.Itoa(cfg.History.MaxEntries)
	level := strings.ToLower(cfg.Logging.Level)
	format := strings.ToLower(cfg.Logging.Format)
	addr := cfg.Server.Addr
	metricsOn := cfg.Server.Metrics
	var confirm bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Workspace name").
				Value(&name).
				Validate(requireNonEmpty("workspace name")),
			huh.NewSelect[string]().
				Title("Storage").
				Options(
					huh.NewOption("On disk (Badger)", "badger"),
					huh.NewOption("In memory (nothing is saved)", "memory"),
				).
				Value(&backend),
			huh.NewInput().
				Title("History limit").
				Description("0 keeps every path").
				Value(&maxEntries).
				Validate(validateNonNegativeInt),
		).Title("Workspace"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&level),
			huh.NewSelect[string]().
				Title("Log format").
				Options(huh.NewOptions("text", "json")...).
				Value(&format),
			huh.NewInput().
				Title("API listen address").
				Value(&addr).
				Validate(requireNonEmpty("listen address")),
			huh.NewConfirm().
				Title("Expose /metrics?").
				Value(&metricsOn).
				Affirmative("Yes").
				Negative("No"),
		).Title("Runtime"),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Save changes?").
				Value(&confirm).
				Affirmative("Save").
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return fmt.Errorf("interactive config edit: %w", err)
	}
	if !confirm {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	cfg.Project.Name = strings.TrimSpace(name)
	cfg.Storage.Backend = backend
	cfg.History.MaxEntries, _ = strconv.Atoi(strings.TrimSpace(maxEntries))
	cfg.Logging.Level = level
	cfg.Logging.Format = format
	cfg.Server.Addr = strings.TrimSpace(addr)
	cfg.Server.Metrics = metricsOn

	configPath := filepath.Join(cfg.ConfigDir, config.ProjectConfigFile)
	if err := config.WriteConfig(cfg, configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func requireNonEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number, 0 or more")
	}
	return nil
}
