package graph

import "fmt"

// SampleCities lists the nodes of the sample graph in insertion order.
var SampleCities = []string{
	"Paris", "London", "Berlin", "Rome", "Madrid",
	"Amsterdam", "Brussels", "Vienna", "Prague", "Copenhagen",
}

// sampleRoutes are approximate flight distances in km, all bidirectional.
var sampleRoutes = []Edge{
	{Source: "Paris", Target: "London", Weight: 344},
	{Source: "Paris", Target: "Berlin", Weight: 878},
	{Source: "Paris", Target: "Madrid", Weight: 1054},
	{Source: "Paris", Target: "Brussels", Weight: 264},
	{Source: "London", Target: "Amsterdam", Weight: 357},
	{Source: "London", Target: "Berlin", Weight: 932},
	{Source: "Berlin", Target: "Prague", Weight: 280},
	{Source: "Berlin", Target: "Copenhagen", Weight: 354},
	{Source: "Berlin", Target: "Vienna", Weight: 524},
	{Source: "Rome", Target: "Vienna", Weight: 765},
	{Source: "Rome", Target: "Madrid", Weight: 1364},
	{Source: "Madrid", Target: "Brussels", Weight: 1315},
	{Source: "Amsterdam", Target: "Copenhagen", Weight: 621},
	{Source: "Amsterdam", Target: "Brussels", Weight: 173},
	{Source: "Vienna", Target: "Prague", Weight: 253},
	{Source: "Prague", Target: "Copenhagen", Weight: 634},
}

// SampleGraph returns the European cities sample as a snapshot.
func SampleGraph() Snapshot {
	snap := Snapshot{
		Nodes: make([]Node, len(SampleCities)),
		Edges: make([]Edge, len(sampleRoutes)),
	}
	for i, c := range SampleCities {
		snap.Nodes[i] = Node{ID: c}
	}
	for i, r := range sampleRoutes {
		r.Bidirectional = true
		snap.Edges[i] = r
	}
	return snap
}

// LoadSample replaces the store's contents with the sample graph. It panics
// if the sample data is invalid.
func (s *Store) LoadSample() {
	if err := s.Restore(SampleGraph()); err != nil {
		panic(fmt.Sprintf("graph: invalid sample graph: %v", err))
	}
}
