package graph

import (
	"context"
	"fmt"
	"io"
)

// Exporter can serialize all stored data to a writer.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
}

// Importer can deserialize data from a reader, replacing all existing data.
type Importer interface {
	Import(ctx context.Context, r io.Reader) error
}

// ExportNode is a node in the external graph document.
type ExportNode struct {
	ID string `json:"id"`
}

// ExportLink is one traversable direction of an edge.
type ExportLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// ExportDocument is the external `{nodes, links}` representation consumed by
// graph exporters. Each link is one traversal direction, so a bidirectional
// edge contributes two links.
type ExportDocument struct {
	Nodes []ExportNode `json:"nodes"`
	Links []ExportLink `json:"links"`
}

// Export converts the snapshot into an export document.
func (s Snapshot) Export() ExportDocument {
	doc := ExportDocument{
		Nodes: make([]ExportNode, 0, len(s.Nodes)),
		Links: make([]ExportLink, 0, len(s.Edges)),
	}
	for _, n := range s.Nodes {
		doc.Nodes = append(doc.Nodes, ExportNode{ID: n.ID})
	}
	for _, e := range s.Edges {
		doc.Links = append(doc.Links, ExportLink{Source: e.Source, Target: e.Target, Weight: e.Weight})
		if e.Bidirectional {
			doc.Links = append(doc.Links, ExportLink{Source: e.Target, Target: e.Source, Weight: e.Weight})
		}
	}
	return doc
}

// ImportDocument replaces the store's contents with an export document.
// Two opposite links with the same weight collapse back into a single
// bidirectional edge; anything else becomes a one-way edge. A link listed
// twice is ErrValidation. On error the store is unchanged.
func (s *Store) ImportDocument(doc ExportDocument) error {
	type pair struct{ from, to string }
	weights := make(map[pair]float64, len(doc.Links))
	for _, l := range doc.Links {
		p := pair{l.Source, l.Target}
		if _, dup := weights[p]; dup {
			return fmt.Errorf("import graph document: %w: link %s -> %s listed twice", ErrValidation, l.Source, l.Target)
		}
		weights[p] = l.Weight
	}

	snap := Snapshot{}
	for _, n := range doc.Nodes {
		snap.Nodes = append(snap.Nodes, Node{ID: n.ID})
	}
	consumed := make(map[pair]bool, len(doc.Links))
	for _, l := range doc.Links {
		p := pair{l.Source, l.Target}
		if consumed[p] {
			continue
		}
		consumed[p] = true
		rev := pair{l.Target, l.Source}
		bidi := false
		if w, ok := weights[rev]; ok && w == l.Weight && !consumed[rev] {
			consumed[rev] = true
			bidi = true
		}
		snap.Edges = append(snap.Edges, Edge{Source: l.Source, Target: l.Target, Weight: l.Weight, Bidirectional: bidi})
	}
	if err := s.Restore(snap); err != nil {
		return fmt.Errorf("import graph document: %w", err)
	}
	return nil
}
