// Package graphfile reads and writes graph definition files in YAML, TOML
// or JSON, so graphs can be kept in version control and loaded or watched
// by the CLI.
//
// A definition lists nodes and edges:
//
//	bidirectional: true     # default for edges that do not say
//	nodes:
//	  - id: Paris
//	    color: "#6366f1"
//	edges:
//	  - {source: Paris, target: London, weight: 344}
//
// JSON files may instead hold the `{nodes, links}` export document.
package graphfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/imyousuf/waypoint/internal/graph"
)

// Format is a definition file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// NodeSpec declares one node.
type NodeSpec struct {
	ID    string  `json:"id" yaml:"id" toml:"id"`
	Color string  `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
	X     float64 `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Y     float64 `json:"y,omitempty" yaml:"y,omitempty" toml:"y,omitempty"`
}

// EdgeSpec declares one edge. A nil Bidirectional falls back to the
// definition's default.
type EdgeSpec struct {
	Source        string  `json:"source" yaml:"source" toml:"source"`
	Target        string  `json:"target" yaml:"target" toml:"target"`
	Weight        float64 `json:"weight" yaml:"weight" toml:"weight"`
	Bidirectional *bool   `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty" toml:"bidirectional,omitempty"`
}

// Definition is the decoded content of a graph file.
type Definition struct {
	Bidirectional bool       `json:"bidirectional,omitempty" yaml:"bidirectional,omitempty" toml:"bidirectional,omitempty"`
	Nodes         []NodeSpec `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges         []EdgeSpec `json:"edges,omitempty" yaml:"edges,omitempty" toml:"edges,omitempty"`

	// Links is only set when a JSON export document was decoded.
	Links []graph.ExportLink `json:"links,omitempty" yaml:"-" toml:"-"`
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported graph file extension %q (want .yaml, .yml, .toml or .json)", filepath.Ext(path))
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatYAML, FormatTOML, FormatJSON:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q (want yaml, toml or json)", name)
	}
}

// Load reads and decodes the definition file at path.
func Load(path string) (*Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()
	def, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadAll loads several definition files and merges them into one, in
// order. Each file's edge direction default is applied before merging. An
// export document can only be loaded on its own.
func LoadAll(paths []string) (*Definition, error) {
	if len(paths) == 1 {
		return Load(paths[0])
	}
	merged := &Definition{}
	for _, path := range paths {
		def, err := Load(path)
		if err != nil {
			return nil, err
		}
		if len(def.Links) > 0 {
			return nil, fmt.Errorf("%s: %w: export documents cannot be merged with other files", path, graph.ErrValidation)
		}
		merged.Nodes = append(merged.Nodes, def.Nodes...)
		for _, e := range def.Edges {
			if e.Bidirectional == nil {
				bidi := def.Bidirectional
				e.Bidirectional = &bidi
			}
			merged.Edges = append(merged.Edges, e)
		}
	}
	return merged, nil
}

// Decode reads a definition in the given format.
func Decode(r io.Reader, format Format) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	var def Definition
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &def)
	case FormatTOML:
		err = toml.Unmarshal(data, &def)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&def)
	default:
		return nil, fmt.Errorf("unsupported graph format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s graph: %w", format, err)
	}
	return &def, nil
}

// Encode writes a definition in the given format.
func Encode(w io.Writer, def *Definition, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(def); err != nil {
			return fmt.Errorf("encode yaml graph: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(def); err != nil {
			return fmt.Errorf("encode toml graph: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(def)
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}
}

// FromSnapshot builds a definition that reproduces snap exactly.
func FromSnapshot(snap graph.Snapshot) *Definition {
	def := &Definition{
		Nodes: make([]NodeSpec, len(snap.Nodes)),
		Edges: make([]EdgeSpec, len(snap.Edges)),
	}
	for i, n := range snap.Nodes {
		def.Nodes[i] = NodeSpec{ID: n.ID, Color: n.Color, X: n.X, Y: n.Y}
	}
	for i, e := range snap.Edges {
		bidi := e.Bidirectional
		def.Edges[i] = EdgeSpec{Source: e.Source, Target: e.Target, Weight: e.Weight, Bidirectional: &bidi}
	}
	return def
}

// Snapshot validates the definition and returns the graph it describes.
// Edge endpoints that are not declared as nodes are added in order of first
// appearance.
func (d *Definition) Snapshot() (graph.Snapshot, error) {
	s := graph.NewStore()
	if len(d.Links) > 0 {
		if len(d.Edges) > 0 {
			return graph.Snapshot{}, fmt.Errorf("%w: definition has both edges and links", graph.ErrValidation)
		}
		doc := graph.ExportDocument{Links: d.Links}
		for _, n := range d.Nodes {
			doc.Nodes = append(doc.Nodes, graph.ExportNode{ID: n.ID})
		}
		if err := s.ImportDocument(doc); err != nil {
			return graph.Snapshot{}, err
		}
		return s.Snapshot(), nil
	}

	for _, n := range d.Nodes {
		if !s.AddNode(n.ID) {
			return graph.Snapshot{}, fmt.Errorf("%w: duplicate or empty node id %q", graph.ErrValidation, n.ID)
		}
		if n.Color != "" {
			_ = s.SetNodeColor(n.ID, n.Color)
		}
		if n.X != 0 || n.Y != 0 {
			_ = s.SetNodePosition(n.ID, n.X, n.Y)
		}
	}
	for i, e := range d.Edges {
		s.AddNode(e.Source)
		s.AddNode(e.Target)
		bidi := d.Bidirectional
		if e.Bidirectional != nil {
			bidi = *e.Bidirectional
		}
		if _, err := s.AddOrUpdateEdge(e.Source, e.Target, e.Weight, bidi); err != nil {
			return graph.Snapshot{}, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return s.Snapshot(), nil
}
