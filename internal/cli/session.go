package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imyousuf/waypoint/internal/config"
	"github.com/imyousuf/waypoint/internal/logging"
	"github.com/imyousuf/waypoint/internal/metrics"
	"github.com/imyousuf/waypoint/internal/workspace"
)

// errNoWorkspace is returned when a command needs storage but neither a
// workspace nor --db-path/--memory was given.
var errNoWorkspace = errors.New("no workspace found; run 'waypoint init', or pass --db-path or --memory")

// session is everything a command needs to work on one workspace.
type session struct {
	cfg      *config.Config
	ws       *workspace.Workspace
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Recorder
}

// resolveConfigFile picks the config file from --config, then --workspace.
// An empty result means "search upward from the working directory".
func resolveConfigFile() (string, error) {
	if f := viper.GetString("config_file"); f != "" {
		return f, nil
	}
	if cfgFile != "" {
		return cfgFile, nil
	}
	if workspaceName == "" {
		return "", nil
	}
	entry, ok := config.LookupWorkspace(workspaceName)
	if !ok {
		return "", fmt.Errorf("workspace %q is not registered in %s", workspaceName, config.RegistryPath())
	}
	return filepath.Join(entry.ConfigDir, config.ProjectConfigFile), nil
}

// loadConfig loads and validates the configuration for this invocation.
func loadConfig() (*config.Config, error) {
	file, err := resolveConfigFile()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so command output
// stays parseable.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return logging.New(w, cfg.Logging, verbose)
}

// openSession loads config and opens the workspace database.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	dbPath := ""
	if !inMemory && cfg.Storage.Backend != "memory" {
		dbPath = cfg.ResolveDBPath(dbPathFlag)
		if dbPath == "" {
			return nil, errNoWorkspace
		}
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	ws, err := workspace.Open(cmd.Context(), workspace.Options{
		DBPath:     dbPath,
		MaxHistory: cfg.History.MaxEntries,
		Logger:     logger,
		Metrics:    rec,
	})
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	if ws.Ephemeral() && dbPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not open %s; changes will not be saved\n", dbPath)
	}
	logger.Debug("workspace opened", "db_path", dbPath, "ephemeral", ws.Ephemeral())

	return &session{cfg: cfg, ws: ws, logger: logger, registry: reg, metrics: rec}, nil
}

// Close releases the workspace.
func (s *session) Close() error {
	return s.ws.Close()
}

// withSession opens a session, runs fn and closes it.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// warnUnsaved tells the user when the last change did not reach disk.
func (s *session) warnUnsaved(w io.Writer) {
	if s.ws.GraphUnsaved() || s.ws.HistoryUnsaved() {
		fmt.Fprintln(w, "Warning: changes could not be saved; see log for details")
	}
}
