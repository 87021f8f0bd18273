package graph

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportDoublesBidirectionalEdges(t *testing.T) {
	s := newTestStore(t, "A", "B", "C")
	mustEdge(t, s, "A", "B", 4, true)
	mustEdge(t, s, "B", "C", 2, false)

	doc := s.Snapshot().Export()

	wantLinks := []ExportLink{
		{Source: "A", Target: "B", Weight: 4},
		{Source: "B", Target: "A", Weight: 4},
		{Source: "B", Target: "C", Weight: 2},
	}
	if diff := cmp.Diff(wantLinks, doc.Links); diff != "" {
		t.Errorf("links (-want +got):\n%s", diff)
	}
	if len(doc.Nodes) != 3 || doc.Nodes[0].ID != "A" {
		t.Errorf("nodes = %+v", doc.Nodes)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"nodes":[{"id":"A"},{"id":"B"},{"id":"C"}],"links":[{"source":"A","target":"B","weight":4},{"source":"B","target":"A","weight":4},{"source":"B","target":"C","weight":2}]}`
	if string(data) != want {
		t.Errorf("json = %s\nwant  %s", data, want)
	}
}

func TestImportDocumentCollapsesPairs(t *testing.T) {
	doc := ExportDocument{
		Nodes: []ExportNode{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Links: []ExportLink{
			{Source: "A", Target: "B", Weight: 4},
			{Source: "B", Target: "C", Weight: 2},
			{Source: "B", Target: "A", Weight: 4},
			{Source: "C", Target: "B", Weight: 5},
		},
	}

	s := NewStore()
	if err := s.ImportDocument(doc); err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	want := []Edge{
		{Source: "A", Target: "B", Weight: 4, Bidirectional: true},
		{Source: "B", Target: "C", Weight: 2},
		{Source: "C", Target: "B", Weight: 5},
	}
	if diff := cmp.Diff(want, s.Snapshot().Edges); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}

	// Export of the imported graph reproduces every link.
	if got := len(s.Snapshot().Export().Links); got != len(doc.Links) {
		t.Errorf("re-exported %d links, want %d", got, len(doc.Links))
	}
}

func TestImportDocumentRejectsDanglingLinks(t *testing.T) {
	s := newTestStore(t, "keep")
	doc := ExportDocument{
		Nodes: []ExportNode{{ID: "A"}},
		Links: []ExportLink{{Source: "A", Target: "ghost", Weight: 1}},
	}
	if err := s.ImportDocument(doc); err == nil {
		t.Fatal("ImportDocument with dangling link succeeded")
	}
	if !s.HasNode("keep") {
		t.Error("store modified by failed import")
	}
}

func TestImportDocumentRejectsDuplicateLinks(t *testing.T) {
	s := newTestStore(t, "keep")
	doc := ExportDocument{
		Nodes: []ExportNode{{ID: "A"}, {ID: "B"}},
		Links: []ExportLink{
			{Source: "A", Target: "B", Weight: 1},
			{Source: "B", Target: "A", Weight: 1},
			{Source: "A", Target: "B", Weight: 2},
		},
	}
	if err := s.ImportDocument(doc); !errors.Is(err, ErrValidation) {
		t.Fatalf("ImportDocument with a repeated link = %v, want ErrValidation", err)
	}
	if ids := s.Snapshot().NodeIDs(); len(ids) != 1 || ids[0] != "keep" {
		t.Errorf("store modified by failed import: %v", ids)
	}
}

func TestSampleGraph(t *testing.T) {
	snap := SampleGraph()
	if len(snap.Nodes) != len(SampleCities) {
		t.Fatalf("nodes = %d, want %d", len(snap.Nodes), len(SampleCities))
	}
	for _, e := range snap.Edges {
		if !e.Bidirectional {
			t.Errorf("sample edge %s-%s is one-way", e.Source, e.Target)
		}
		if !snap.HasNode(e.Source) || !snap.HasNode(e.Target) {
			t.Errorf("sample edge %s-%s has a dangling endpoint", e.Source, e.Target)
		}
	}

	// LoadSample panics if the sample stops validating.
	s := NewStore()
	s.LoadSample()
	if diff := cmp.Diff(snap, s.Snapshot()); diff != "" {
		t.Errorf("loaded sample (-want +got):\n%s", diff)
	}
}
