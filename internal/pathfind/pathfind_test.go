package pathfind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imyousuf/waypoint/internal/graph"
)

func buildGraph(t *testing.T, nodes []string, edges []graph.Edge) graph.Snapshot {
	t.Helper()
	s := graph.NewStore()
	for _, n := range nodes {
		s.AddNode(n)
	}
	for _, e := range edges {
		if _, err := s.AddOrUpdateEdge(e.Source, e.Target, e.Weight, e.Bidirectional); err != nil {
			t.Fatalf("AddOrUpdateEdge(%s, %s): %v", e.Source, e.Target, err)
		}
	}
	return s.Snapshot()
}

func TestShortestPathSampleGraph(t *testing.T) {
	snap := graph.SampleGraph()

	res, err := ShortestPath(snap, "Paris", "Prague")
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if diff := cmp.Diff([]string{"Paris", "Berlin", "Prague"}, res.Path); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
	if res.Distance != 1158 {
		t.Errorf("distance = %v, want 1158", res.Distance)
	}

	wantSteps := []Step{
		{From: "Paris", To: "Berlin", Weight: 878, Bidirectional: true},
		{From: "Berlin", To: "Prague", Weight: 280, Bidirectional: true},
	}
	if diff := cmp.Diff(wantSteps, res.Steps); diff != "" {
		t.Errorf("steps (-want +got):\n%s", diff)
	}
	if got := res.Distances["Paris"]; got != 0 {
		t.Errorf("Distances[Paris] = %v, want 0", got)
	}
	if got := res.Distances["Brussels"]; got != 264 {
		t.Errorf("Distances[Brussels] = %v, want 264", got)
	}
	if res.Visited[0] != "Paris" || res.Visited[len(res.Visited)-1] != "Prague" {
		t.Errorf("Visited = %v, want Paris first and Prague last", res.Visited)
	}
}

func TestShortestPathSymmetricWhenBidirectional(t *testing.T) {
	snap := graph.SampleGraph()
	for _, a := range graph.SampleCities {
		for _, b := range graph.SampleCities {
			t.Run(fmt.Sprintf("%s-%s", a, b), func(t *testing.T) {
				ab, err := ShortestPath(snap, a, b)
				if err != nil {
					t.Fatalf("ShortestPath(%s, %s): %v", a, b, err)
				}
				ba, err := ShortestPath(snap, b, a)
				if err != nil {
					t.Fatalf("ShortestPath(%s, %s): %v", b, a, err)
				}
				if ab.Distance != ba.Distance {
					t.Errorf("distance %s->%s = %v, %s->%s = %v", a, b, ab.Distance, b, a, ba.Distance)
				}
			})
		}
	}
}

func TestShortestPathRespectsDirection(t *testing.T) {
	snap := buildGraph(t, []string{"A", "B"}, []graph.Edge{
		{Source: "A", Target: "B", Weight: 1},
	})

	res, err := ShortestPath(snap, "A", "B")
	if err != nil {
		t.Fatalf("ShortestPath(A, B): %v", err)
	}
	if res.Distance != 1 {
		t.Errorf("distance = %v, want 1", res.Distance)
	}

	if _, err := ShortestPath(snap, "B", "A"); !errors.Is(err, ErrNoPath) {
		t.Errorf("ShortestPath(B, A): err = %v, want ErrNoPath", err)
	}
}

func TestShortestPathSameNode(t *testing.T) {
	snap := graph.SampleGraph()
	res, err := ShortestPath(snap, "Rome", "Rome")
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if !cmp.Equal(res.Path, []string{"Rome"}) || res.Distance != 0 {
		t.Errorf("result = %+v, want path [Rome] distance 0", res)
	}
	if len(res.Steps) != 0 {
		t.Errorf("steps = %v, want none", res.Steps)
	}
}

func TestShortestPathErrors(t *testing.T) {
	snap := buildGraph(t, []string{"A", "B", "Lonely"}, []graph.Edge{
		{Source: "A", Target: "B", Weight: 3, Bidirectional: true},
	})

	tests := []struct {
		name       string
		start, end string
		want       error
	}{
		{"unknown start", "X", "A", graph.ErrValidation},
		{"unknown end", "A", "X", graph.ErrValidation},
		{"isolated end", "A", "Lonely", ErrNoPath},
		{"isolated start", "Lonely", "B", ErrNoPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ShortestPath(snap, tt.start, tt.end)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if res != nil {
				t.Errorf("result = %+v, want nil", res)
			}
		})
	}

	if _, err := ShortestPath(graph.Snapshot{}, "A", "B"); !errors.Is(err, graph.ErrValidation) {
		t.Errorf("empty graph: err = %v, want ErrValidation", err)
	}
}

func TestShortestPathPrefersCheaperLongerRoute(t *testing.T) {
	snap := buildGraph(t, []string{"A", "B", "C", "D"}, []graph.Edge{
		{Source: "A", Target: "D", Weight: 10},
		{Source: "A", Target: "B", Weight: 1},
		{Source: "B", Target: "C", Weight: 1},
		{Source: "C", Target: "D", Weight: 1},
	})
	res, err := ShortestPath(snap, "A", "D")
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if !cmp.Equal(res.Path, []string{"A", "B", "C", "D"}) || res.Distance != 3 {
		t.Errorf("result = %v (%v), want [A B C D] (3)", res.Path, res.Distance)
	}
}

func TestShortestPathDeterministicTies(t *testing.T) {
	// Two routes of equal cost; the lexically smaller intermediate settles
	// first and wins.
	snap := buildGraph(t, []string{"S", "Y", "X", "T"}, []graph.Edge{
		{Source: "S", Target: "Y", Weight: 1},
		{Source: "S", Target: "X", Weight: 1},
		{Source: "Y", Target: "T", Weight: 1},
		{Source: "X", Target: "T", Weight: 1},
	})
	for i := 0; i < 20; i++ {
		res, err := ShortestPath(snap, "S", "T")
		if err != nil {
			t.Fatalf("ShortestPath: %v", err)
		}
		if !cmp.Equal(res.Path, []string{"S", "X", "T"}) {
			t.Fatalf("run %d: path = %v, want [S X T]", i, res.Path)
		}
	}
}

func TestShortestPathZeroWeights(t *testing.T) {
	snap := buildGraph(t, []string{"A", "B", "C"}, []graph.Edge{
		{Source: "A", Target: "B", Weight: 0},
		{Source: "B", Target: "C", Weight: 0, Bidirectional: true},
	})
	res, err := ShortestPath(snap, "A", "C")
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if res.Distance != 0 || len(res.Path) != 3 {
		t.Errorf("result = %v (%v), want 3-node path with distance 0", res.Path, res.Distance)
	}
}

func TestPathLength(t *testing.T) {
	snap := graph.SampleGraph()

	got, err := PathLength(snap, []string{"Paris", "Brussels", "Amsterdam", "Copenhagen", "Prague"})
	if err != nil {
		t.Fatalf("PathLength: %v", err)
	}
	if got != 1692 {
		t.Errorf("length = %v, want 1692", got)
	}

	if got, err := PathLength(snap, []string{"Rome"}); err != nil || got != 0 {
		t.Errorf("single node: got %v, %v; want 0, nil", got, err)
	}
	if _, err := PathLength(snap, []string{"Paris", "Prague"}); !errors.Is(err, ErrNoPath) {
		t.Errorf("non-adjacent hop: err = %v, want ErrNoPath", err)
	}
	if _, err := PathLength(snap, []string{"Paris", "Atlantis"}); !errors.Is(err, graph.ErrValidation) {
		t.Errorf("unknown node: err = %v, want ErrValidation", err)
	}
	if _, err := PathLength(snap, nil); !errors.Is(err, graph.ErrValidation) {
		t.Errorf("empty path: err = %v, want ErrValidation", err)
	}
}
