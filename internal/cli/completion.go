package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// completionShell describes how to generate and where to install one
// shell's completion script.
type completionShell struct {
	name       string
	generate   func(root *cobra.Command, w io.Writer) error
	systemPath string
	userPath   []string // relative to the home directory
	userHint   string
}

var completionShells = []completionShell{
	{
		name:       "bash",
		generate:   func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
		systemPath: "/etc/bash_completion.d/waypoint",
		userPath:   []string{".bash_completion.d", "waypoint"},
		userHint: `Add to your ~/.bashrc if not already present:
  for f in ~/.bash_completion.d/*; do source "$f"; done`,
	},
	{
		name:       "zsh",
		generate:   func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
		systemPath: "/usr/local/share/zsh/site-functions/_waypoint",
		userPath:   []string{".zsh", "completions", "_waypoint"},
		userHint: `Add to your ~/.zshrc if not already present:
  fpath=(~/.zsh/completions $fpath)
  autoload -U compinit && compinit`,
	},
	{
		name:       "fish",
		generate:   func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
		systemPath: "/usr/share/fish/vendor_completions.d/waypoint.fish",
		userPath:   []string{".config", "fish", "completions", "waypoint.fish"},
		userHint:   "Completions load automatically in new fish sessions.",
	},
}

func findCompletionShell(name string) (completionShell, bool) {
	for _, sh := range completionShells {
		if sh.name == name {
			return sh, true
		}
	}
	return completionShell{}, false
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate or install shell completion scripts",
		Long: `Generate or install shell completion scripts for Waypoint.

Subcommands:
  bash      Print bash completion script to stdout
  zsh       Print zsh completion script to stdout
  fish      Print fish completion script to stdout
  install   Auto-detect shell and install completion script`,
	}

	for _, sh := range completionShells {
		cmd.AddCommand(newCompletionPrintCmd(sh))
	}
	cmd.AddCommand(newCompletionInstallCmd())

	return cmd
}

func newCompletionPrintCmd(sh completionShell) *cobra.Command {
	return &cobra.Command{
		Use:   sh.name,
		Short: fmt.Sprintf("Generate %s completion script", sh.name),
		Long: fmt.Sprintf(`Generate %[1]s completion script for Waypoint.

To load completions in your current shell session:
  source <(waypoint completion %[1]s)

To install permanently, use:
  waypoint completion install`, sh.name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sh.generate(cmd.Root(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to generate %s completion: %w", sh.name, err)
			}
			return nil
		},
	}
}

func newCompletionInstallCmd() *cobra.Command {
	var shellName string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Auto-detect shell and install completion script",
		Long: `Auto-detect your shell and install the completion script.

Running as root installs system-wide; otherwise the script goes under your
home directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shellName == "" {
				shellName = detectShell()
			}
			sh, ok := findCompletionShell(shellName)
			if !ok {
				return fmt.Errorf("unsupported shell %q (bash, zsh and fish are supported)", shellName)
			}

			var script bytes.Buffer
			if err := sh.generate(cmd.Root(), &script); err != nil {
				return fmt.Errorf("failed to generate %s completion: %w", sh.name, err)
			}

			path, hint := sh.systemPath, "Completion will be available in new shells."
			if os.Geteuid() != 0 {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
				path = filepath.Join(append([]string{home}, sh.userPath...)...)
				hint = sh.userHint
			}

			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
			}
			if err := os.WriteFile(path, script.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write completion file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s completion to: %s\n\n%s\n", sh.name, path, hint)
			return nil
		},
	}

	cmd.Flags().StringVar(&shellName, "shell", "", "shell to install for (default: from $SHELL)")

	return cmd
}

// detectShell names the login shell from $SHELL.
func detectShell() string {
	base := filepath.Base(os.Getenv("SHELL"))
	for _, sh := range completionShells {
		if strings.Contains(base, sh.name) {
			return sh.name
		}
	}
	return base
}
