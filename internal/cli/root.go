// Package cli implements the command-line interface for Waypoint.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	verbose       bool
	dbPathFlag    string
	workspaceName string
	inMemory      bool
)

// newRootCmd builds the command tree. Flag variables are reset on every
// call.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Waypoint - weighted graph editor and shortest-path finder",
		Long: `Waypoint keeps a weighted graph of named nodes, finds shortest paths
between them, and remembers every path it has found.

Commands:
  init       Initialize a .waypoint workspace
  node       Add, rename, color, move or remove nodes
  edge       Add, update or remove weighted edges
  path       Find the shortest path between two nodes
  history    List, replay and manage found paths
  graph      Show, export, import or clear the whole graph
  serve      Serve the graph over a JSON HTTP API
  watch      Keep the graph in sync with definition files
  shell      Interactive session`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all subcommands)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: nearest .waypoint/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&dbPathFlag, "db-path", "", "graph database directory (overrides config)")
	pf.StringVarP(&workspaceName, "workspace", "w", "", "registered workspace name or root path")
	pf.BoolVar(&inMemory, "memory", false, "use a throwaway in-memory database")

	// Bind flags to viper
	if err := viper.BindPFlag("config_file", pf.Lookup("config")); err != nil {
		panic(fmt.Sprintf("failed to bind config flag: %v", err))
	}

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newNodeCmd())
	rootCmd.AddCommand(newEdgeCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newRestoreCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newWorkspacesCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
