package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryRoundTrip(t *testing.T) {
	// Use a temp dir as HOME so we don't modify the real registry.
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	regPath := RegistryPath()
	if want := filepath.Join(tmpHome, registryFileName); regPath != want {
		t.Errorf("RegistryPath() = %q, want %q", regPath, want)
	}

	if entries := ListWorkspaces(); len(entries) != 0 {
		t.Errorf("ListWorkspaces() = %d entries, want 0", len(entries))
	}

	if err := RegisterWorkspace("transit", "/home/user/transit", "/home/user/transit/.waypoint"); err != nil {
		t.Fatalf("RegisterWorkspace() error: %v", err)
	}
	if err := RegisterWorkspace("europe", "/home/user/europe", "/home/user/europe/.waypoint"); err != nil {
		t.Fatalf("RegisterWorkspace() error: %v", err)
	}

	entries := ListWorkspaces()
	if len(entries) != 2 {
		t.Fatalf("ListWorkspaces() = %d entries, want 2", len(entries))
	}
	if entries[0].Name != "europe" || entries[1].Name != "transit" {
		t.Errorf("entries not sorted by name: %+v", entries)
	}

	// Same root, new name updates in place.
	if err := RegisterWorkspace("transit-v2", "/home/user/transit", "/home/user/transit/.waypoint"); err != nil {
		t.Fatalf("RegisterWorkspace() update error: %v", err)
	}
	entries = ListWorkspaces()
	if len(entries) != 2 {
		t.Fatalf("ListWorkspaces() = %d entries after update, want 2", len(entries))
	}
	if _, ok := LookupWorkspace("transit-v2"); !ok {
		t.Error("updated entry not found by name")
	}

	removed, err := UnregisterWorkspace("europe")
	if err != nil || !removed {
		t.Fatalf("UnregisterWorkspace() = %v, %v", removed, err)
	}
	if removed, _ := UnregisterWorkspace("europe"); removed {
		t.Error("UnregisterWorkspace() removed a missing entry")
	}
	if got := len(ListWorkspaces()); got != 1 {
		t.Errorf("ListWorkspaces() = %d entries after removal, want 1", got)
	}
}

func TestRegisterWorkspaceDefaultName(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := RegisterWorkspace("", "/home/user/my-graphs", "/home/user/my-graphs/.waypoint"); err != nil {
		t.Fatalf("RegisterWorkspace() error: %v", err)
	}
	entries := ListWorkspaces()
	if len(entries) != 1 || entries[0].Name != "my-graphs" {
		t.Errorf("entries = %+v, want one named my-graphs", entries)
	}
}

func TestLookupWorkspace(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := RegisterWorkspace("metro", "/home/user/metro", "/home/user/metro/.waypoint"); err != nil {
		t.Fatalf("RegisterWorkspace() error: %v", err)
	}

	tests := []struct {
		query string
		found bool
	}{
		{"metro", true},
		{"/home/user/metro", true},
		{"/home/user/metro/lines/north", true},
		{"/home/user/metropolis", false},
		{"other", false},
	}
	for _, tt := range tests {
		entry, ok := LookupWorkspace(tt.query)
		if ok != tt.found {
			t.Errorf("LookupWorkspace(%q) found = %v, want %v", tt.query, ok, tt.found)
			continue
		}
		if ok && entry.Name != "metro" {
			t.Errorf("LookupWorkspace(%q).Name = %q", tt.query, entry.Name)
		}
	}
}

func TestRegisterRejectsNameOfOtherRoot(t *testing.T) {
	reg := Registry{Path: filepath.Join(t.TempDir(), "registry.yaml")}

	if err := reg.Register("metro", "/srv/metro", "/srv/metro/.waypoint"); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	err := reg.Register("metro", "/srv/other", "/srv/other/.waypoint")
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("Register() with a taken name = %v, want ErrNameTaken", err)
	}

	want := []WorkspaceEntry{{Name: "metro", Root: "/srv/metro", ConfigDir: "/srv/metro/.waypoint"}}
	if diff := cmp.Diff(want, reg.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistryTolerantReads(t *testing.T) {
	dir := t.TempDir()

	if got := (Registry{}).Entries(); got != nil {
		t.Errorf("registry without a path = %+v, want nil", got)
	}
	if err := (Registry{}).Register("x", "/x", "/x/.waypoint"); err != nil {
		t.Errorf("Register() without a path = %v, want nil", err)
	}

	corrupt := filepath.Join(dir, "corrupt.yaml")
	if err := os.WriteFile(corrupt, []byte("workspaces: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := (Registry{Path: corrupt}).Entries(); len(got) != 0 {
		t.Errorf("corrupt registry = %+v, want empty", got)
	}
}
