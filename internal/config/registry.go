package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
)

const registryFileName = ".waypoint.conf"

// ErrNameTaken is returned when a workspace name is already registered for
// a different root.
var ErrNameTaken = errors.New("workspace name already registered")

// WorkspaceEntry is a workspace recorded in the global registry so that
// `--workspace <name>` works from any directory.
type WorkspaceEntry struct {
	Name      string `yaml:"name"`
	Root      string `yaml:"root"`
	ConfigDir string `yaml:"config_dir"`
}

// contains reports whether path is the entry's root or below it.
func (e WorkspaceEntry) contains(path string) bool {
	root, err := filepath.Abs(e.Root)
	if err != nil {
		root = e.Root
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// Registry is a YAML file listing known workspaces, sorted by name.
// A missing or unreadable file reads as an empty registry.
type Registry struct {
	Path string
}

type registryFile struct {
	Workspaces []WorkspaceEntry `yaml:"workspaces"`
}

// DefaultRegistry returns the registry in the user's home directory. Its Path
// is empty when the home directory cannot be determined, which makes every
// write a no-op.
func DefaultRegistry() Registry {
	home, err := os.UserHomeDir()
	if err != nil {
		return Registry{}
	}
	return Registry{Path: filepath.Join(home, registryFileName)}
}

// Entries returns every registered workspace.
func (r Registry) Entries() []WorkspaceEntry {
	if r.Path == "" {
		return nil
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil
	}
	return f.Workspaces
}

// Register records root under name, replacing any entry for the same root.
// An empty name defaults to the root's base name.
func (r Registry) Register(name, root, configDir string) error {
	if name == "" {
		name = filepath.Base(root)
	}

	entries := r.Entries()
	for _, e := range entries {
		if e.Name == name && e.Root != root {
			return fmt.Errorf("%w: %s is %s", ErrNameTaken, name, e.Root)
		}
	}
	entries = slices.DeleteFunc(entries, func(e WorkspaceEntry) bool { return e.Root == root })
	entries = append(entries, WorkspaceEntry{Name: name, Root: root, ConfigDir: configDir})
	slices.SortFunc(entries, func(a, b WorkspaceEntry) int { return strings.Compare(a.Name, b.Name) })
	return r.write(entries)
}

// Lookup finds an entry by name, then by a root that is or contains the
// given path.
func (r Registry) Lookup(nameOrPath string) (*WorkspaceEntry, bool) {
	entries := r.Entries()
	if i := slices.IndexFunc(entries, func(e WorkspaceEntry) bool { return e.Name == nameOrPath }); i >= 0 {
		return &entries[i], true
	}

	abs, err := filepath.Abs(nameOrPath)
	if err != nil {
		abs = nameOrPath
	}
	if i := slices.IndexFunc(entries, func(e WorkspaceEntry) bool { return e.contains(abs) }); i >= 0 {
		return &entries[i], true
	}
	return nil, false
}

// Remove deletes the entry with the given name and reports whether one was
// removed.
func (r Registry) Remove(name string) (bool, error) {
	entries := r.Entries()
	kept := slices.DeleteFunc(slices.Clone(entries), func(e WorkspaceEntry) bool { return e.Name == name })
	if len(kept) == len(entries) {
		return false, nil
	}
	return true, r.write(kept)
}

func (r Registry) write(entries []WorkspaceEntry) error {
	if r.Path == "" {
		return nil
	}
	data, err := yaml.Marshal(&registryFile{Workspaces: entries})
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return os.WriteFile(r.Path, data, 0644)
}

// RegistryPath returns the path to the global registry file (~/.waypoint.conf).
func RegistryPath() string { return DefaultRegistry().Path }

// RegisterWorkspace records a workspace in the global registry.
func RegisterWorkspace(name, root, configDir string) error {
	return DefaultRegistry().Register(name, root, configDir)
}

// LookupWorkspace searches the global registry.
func LookupWorkspace(nameOrPath string) (*WorkspaceEntry, bool) {
	return DefaultRegistry().Lookup(nameOrPath)
}

// UnregisterWorkspace removes a workspace from the global registry.
func UnregisterWorkspace(name string) (bool, error) {
	return DefaultRegistry().Remove(name)
}

// ListWorkspaces returns every workspace in the global registry.
func ListWorkspaces() []WorkspaceEntry {
	return DefaultRegistry().Entries()
}
