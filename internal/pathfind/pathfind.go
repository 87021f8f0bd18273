// Package pathfind computes single-source shortest paths over graph
// snapshots.
//
// The search is Dijkstra's algorithm with a binary-heap frontier, which runs
// in O((V + E) log V). Every edge contributes the arc source -> target, and
// bidirectional edges also contribute target -> source. Weights are
// non-negative; the graph store rejects anything else.
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/imyousuf/waypoint/internal/graph"
)

// ErrNoPath is returned when both endpoints exist but the end node cannot be
// reached from the start node.
var ErrNoPath = errors.New("no path")

// Step is one arc along a found path, in traversal order.
type Step struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Weight        float64 `json:"weight"`
	Bidirectional bool    `json:"bidirectional"`
}

// Result is a successful shortest-path query.
type Result struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Path     []string `json:"path"`
	Distance float64  `json:"distance"`

	// Distances holds every node that had a finite label when the search
	// stopped. Nodes in Visited carry their final shortest distance.
	Distances map[string]float64 `json:"distances"`

	// Visited lists nodes in the order the search settled them.
	Visited []string `json:"visited"`

	// Steps lists the arcs of Path in traversal order.
	Steps []Step `json:"steps"`
}

type arc struct {
	to            string
	weight        float64
	bidirectional bool
}

// adjacency expands the snapshot's edge records into traversal arcs, keeping
// edge insertion order per node.
func adjacency(snap graph.Snapshot) map[string][]arc {
	adj := make(map[string][]arc, len(snap.Nodes))
	for _, e := range snap.Edges {
		adj[e.Source] = append(adj[e.Source], arc{to: e.Target, weight: e.Weight, bidirectional: e.Bidirectional})
		if e.Bidirectional {
			adj[e.Target] = append(adj[e.Target], arc{to: e.Source, weight: e.Weight, bidirectional: true})
		}
	}
	return adj
}

// ShortestPath finds the cheapest path from start to end in snap.
//
// It returns graph.ErrValidation if either endpoint is not in the snapshot
// and ErrNoPath if end is unreachable. The search stops as soon as end is
// settled. When start == end the result is the single-node path with
// distance 0.
func ShortestPath(snap graph.Snapshot, start, end string) (*Result, error) {
	if !snap.HasNode(start) {
		return nil, fmt.Errorf("%w: start node %q does not exist", graph.ErrValidation, start)
	}
	if !snap.HasNode(end) {
		return nil, fmt.Errorf("%w: end node %q does not exist", graph.ErrValidation, end)
	}
	if start == end {
		return &Result{
			Start:     start,
			End:       end,
			Path:      []string{start},
			Distances: map[string]float64{start: 0},
			Visited:   []string{start},
			Steps:     []Step{},
		}, nil
	}

	adj := adjacency(snap)
	dist := map[string]float64{start: 0}
	prev := make(map[string]Step)
	settled := make(map[string]bool, len(snap.Nodes))
	var visited []string

	f := newFrontier(len(snap.Nodes))
	heap.Push(f, candidate{id: start, distance: 0})

	for f.Len() > 0 {
		c := heap.Pop(f).(candidate)
		if settled[c.id] || c.distance > dist[c.id] {
			continue // stale entry
		}
		settled[c.id] = true
		visited = append(visited, c.id)
		if c.id == end {
			break
		}

		for _, a := range adj[c.id] {
			if settled[a.to] {
				continue
			}
			d := c.distance + a.weight
			if old, ok := dist[a.to]; !ok || d < old {
				dist[a.to] = d
				prev[a.to] = Step{From: c.id, To: a.to, Weight: a.weight, Bidirectional: a.bidirectional}
				heap.Push(f, candidate{id: a.to, distance: d})
			}
		}
	}

	if !settled[end] {
		return nil, fmt.Errorf("%w: %s is not reachable from %s", ErrNoPath, end, start)
	}

	steps := make([]Step, 0)
	for at := end; at != start; {
		s := prev[at]
		steps = append(steps, s)
		at = s.From
	}
	path := make([]string, 0, len(steps)+1)
	path = append(path, start)
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	for _, s := range steps {
		path = append(path, s.To)
	}

	return &Result{
		Start:     start,
		End:       end,
		Path:      path,
		Distance:  dist[end],
		Distances: dist,
		Visited:   visited,
		Steps:     steps,
	}, nil
}

// PathLength measures an existing node sequence against the current graph,
// taking the cheapest traversable arc for each hop. It returns ErrNoPath if
// some hop can no longer be traversed and graph.ErrValidation for an empty
// path or a node that no longer exists.
func PathLength(snap graph.Snapshot, path []string) (float64, error) {
	if len(path) == 0 {
		return 0, fmt.Errorf("%w: empty path", graph.ErrValidation)
	}
	for _, id := range path {
		if !snap.HasNode(id) {
			return 0, fmt.Errorf("%w: node %q does not exist", graph.ErrValidation, id)
		}
	}

	adj := adjacency(snap)
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		best := math.Inf(1)
		for _, a := range adj[path[i]] {
			if a.to == path[i+1] && a.weight < best {
				best = a.weight
			}
		}
		if math.IsInf(best, 1) {
			return 0, fmt.Errorf("%w: no edge %s -> %s", ErrNoPath, path[i], path[i+1])
		}
		total += best
	}
	return total, nil
}
