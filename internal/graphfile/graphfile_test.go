package graphfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imyousuf/waypoint/internal/graph"
)

const yamlGraph = `
bidirectional: true
nodes:
  - id: Paris
    color: "#6366f1"
  - id: London
edges:
  - {source: Paris, target: London, weight: 344}
  - {source: London, target: Berlin, weight: 932, bidirectional: false}
`

const tomlGraph = `
bidirectional = true

[[nodes]]
id = "Paris"
color = "#6366f1"

[[nodes]]
id = "London"

[[edges]]
source = "Paris"
target = "London"
weight = 344.0

[[edges]]
source = "London"
target = "Berlin"
weight = 932.0
bidirectional = false
`

const jsonGraph = `{
  "bidirectional": true,
  "nodes": [{"id": "Paris", "color": "#6366f1"}, {"id": "London"}],
  "edges": [
    {"source": "Paris", "target": "London", "weight": 344},
    {"source": "London", "target": "Berlin", "weight": 932, "bidirectional": false}
  ]
}`

func wantSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{{ID: "Paris", Color: "#6366f1"}, {ID: "London"}, {ID: "Berlin"}},
		Edges: []graph.Edge{
			{Source: "Paris", Target: "London", Weight: 344, Bidirectional: true},
			{Source: "London", Target: "Berlin", Weight: 932},
		},
	}
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatYAML, yamlGraph},
		{FormatTOML, tomlGraph},
		{FormatJSON, jsonGraph},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			def, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			snap, err := def.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if diff := cmp.Diff(wantSnapshot(), snap); diff != "" {
				t.Errorf("snapshot (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeExportDocument(t *testing.T) {
	input := `{"nodes":[{"id":"A"},{"id":"B"},{"id":"C"}],
	  "links":[{"source":"A","target":"B","weight":2},{"source":"B","target":"A","weight":2},{"source":"B","target":"C","weight":5}]}`
	def, err := Decode(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	snap, err := def.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := []graph.Edge{
		{Source: "A", Target: "B", Weight: 2, Bidirectional: true},
		{Source: "B", Target: "C", Weight: 5},
	}
	if diff := cmp.Diff(want, snap.Edges); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
}

func TestSnapshotValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"duplicate node", "nodes:\n  - id: A\n  - id: A\n"},
		{"empty node", "nodes:\n  - id: \"\"\n"},
		{"negative weight", "edges:\n  - {source: A, target: B, weight: -1}\n"},
		{"self loop", "edges:\n  - {source: A, target: A, weight: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Decode(strings.NewReader(tt.input), FormatYAML)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if _, err := def.Snapshot(); !errors.Is(err, graph.ErrValidation) {
				t.Errorf("Snapshot error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	snap := graph.SampleGraph()
	for _, format := range []Format{FormatYAML, FormatTOML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, FromSnapshot(snap), format); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			def, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			got, err := def.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if diff := cmp.Diff(snap, got); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "europe.yml")
	if err := os.WriteFile(path, []byte(yamlGraph), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(def.Nodes) != 2 || len(def.Edges) != 2 {
		t.Errorf("definition = %+v", def)
	}

	if _, err := Load(filepath.Join(dir, "graph.txt")); err == nil {
		t.Error("Load accepted an unknown extension")
	}
}

func TestLoadAllMerges(t *testing.T) {
	dir := t.TempDir()
	cities := filepath.Join(dir, "cities.yaml")
	routes := filepath.Join(dir, "routes.toml")
	if err := os.WriteFile(cities, []byte(yamlGraph), 0o644); err != nil {
		t.Fatal(err)
	}
	extra := `
[[edges]]
source = "Berlin"
target = "Prague"
weight = 280.0
`
	if err := os.WriteFile(routes, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := LoadAll([]string{cities, routes})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	snap, err := def.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := wantSnapshot()
	want.Nodes = append(want.Nodes, graph.Node{ID: "Prague"})
	want.Edges = append(want.Edges, graph.Edge{Source: "Berlin", Target: "Prague", Weight: 280})
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("merged snapshot (-want +got):\n%s", diff)
	}

	export := filepath.Join(dir, "export.json")
	if err := os.WriteFile(export, []byte(`{"nodes":[{"id":"A"}],"links":[{"source":"A","target":"B","weight":1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAll([]string{cities, export}); !errors.Is(err, graph.ErrValidation) {
		t.Errorf("LoadAll with export document error = %v, want ErrValidation", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, "YML": FormatYAML, " toml ": FormatTOML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat accepted xml")
	}
}
