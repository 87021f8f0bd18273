package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// collect drains events until the timeout elapses or the channel closes.
func collect(events <-chan Event, timeout time.Duration) []Event {
	var collected []Event
	deadline := time.After(timeout)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, evt)
		case <-deadline:
			return collected
		}
	}
}

// startWatcher watches file and returns its event channel. The watcher is
// closed and its context cancelled when the test ends.
func startWatcher(t *testing.T, file string, debounce time.Duration) <-chan Event {
	t.Helper()
	w, err := NewWatcher(WatcherConfig{Files: []string{file}, Debounce: debounce})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	// fsnotify needs a moment before it reports changes.
	time.Sleep(200 * time.Millisecond)
	return events
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewWatcherRequiresFiles(t *testing.T) {
	if _, err := NewWatcher(WatcherConfig{}); err == nil {
		t.Fatal("NewWatcher accepted an empty file list")
	}
}

func TestWatching(t *testing.T) {
	tmpDir := t.TempDir()
	graphFile := filepath.Join(tmpDir, "europe.yaml")

	w, err := NewWatcher(WatcherConfig{Files: []string{graphFile}})
	if err != nil {
		t.Fatal(err)
	}
	if !w.Watching(graphFile) {
		t.Errorf("Watching(%q) = false", graphFile)
	}
	if w.Watching(filepath.Join(tmpDir, "other.yaml")) {
		t.Error("Watching reported a sibling file")
	}

	t.Chdir(tmpDir)
	if !w.Watching("./europe.yaml") {
		t.Error("Watching did not resolve a relative path")
	}
}

func TestEventDebouncing(t *testing.T) {
	graphFile := filepath.Join(t.TempDir(), "europe.yaml")
	writeFile(t, graphFile, "nodes: []\n")
	events := startWatcher(t, graphFile, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		writeFile(t, graphFile, fmt.Sprintf("nodes:\n  - id: n%d\n", i))
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)

	collected := collect(events, 500*time.Millisecond)

	// Debouncing collapses the rapid writes, typically into a single event.
	if len(collected) == 0 {
		t.Error("expected at least one debounced event, got none")
	}
	if len(collected) >= 5 {
		t.Errorf("expected debouncing to reduce events, got %d events for 5 writes", len(collected))
	}
	for _, evt := range collected {
		if evt.Path != graphFile {
			t.Errorf("unexpected event path: %s", evt.Path)
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	graphFile := filepath.Join(tmpDir, "europe.yaml")
	writeFile(t, graphFile, "nodes: []\n")
	events := startWatcher(t, graphFile, 0)

	writeFile(t, filepath.Join(tmpDir, "notes.txt"), "scratch")
	writeFile(t, graphFile, "nodes:\n  - id: Paris\n")
	time.Sleep(300 * time.Millisecond)

	for _, evt := range collect(events, 500*time.Millisecond) {
		if evt.Path != graphFile {
			t.Errorf("got event for unwatched file: %s", evt.Path)
		}
	}
}

func TestWatcherSeesAtomicReplace(t *testing.T) {
	tmpDir := t.TempDir()
	graphFile := filepath.Join(tmpDir, "europe.toml")
	writeFile(t, graphFile, "")
	events := startWatcher(t, graphFile, 0)

	tmp := filepath.Join(tmpDir, ".europe.toml.swp")
	writeFile(t, tmp, "[[nodes]]\nid = \"Paris\"\n")
	if err := os.Rename(tmp, graphFile); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if len(collect(events, 500*time.Millisecond)) == 0 {
		t.Error("expected an event after the file was replaced by rename")
	}
}

func TestEventsCloseOnCancel(t *testing.T) {
	graphFile := filepath.Join(t.TempDir(), "g.json")
	w, err := NewWatcher(WatcherConfig{Files: []string{graphFile}})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("received an event after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		name   string
		op     fsnotify.Op
		want   EventOp
		wantOk bool
	}{
		{"create", fsnotify.Create, Create, true},
		{"write", fsnotify.Write, Write, true},
		{"remove", fsnotify.Remove, Remove, true},
		{"rename", fsnotify.Rename, Rename, true},
		{"chmod only", fsnotify.Chmod, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertOp(tt.op)
			if ok != tt.wantOk {
				t.Errorf("convertOp(%v) ok = %v, want %v", tt.op, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("convertOp(%v) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestEventOpString(t *testing.T) {
	tests := []struct {
		op   EventOp
		want string
	}{
		{Create, "Create"},
		{Write, "Write"},
		{Remove, "Remove"},
		{Rename, "Rename"},
		{EventOp(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("EventOp(%d).String() = %q, want %q", tt.op, got, tt.want)
			}
		})
	}
}
