package graph

// Node is a uniquely identified vertex in the graph.
// X and Y belong to the layout engine; the store only carries them.
type Node struct {
	ID    string  `json:"id"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Color string  `json:"color,omitempty"`
}

// Edge is a single weighted connection. A bidirectional edge is one record,
// never two; traversal code expands it into both arcs.
type Edge struct {
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	Weight        float64 `json:"weight"`
	Bidirectional bool    `json:"bidirectional"`
}

// Joins reports whether the edge connects a and b, ignoring orientation.
func (e Edge) Joins(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// Snapshot is a read-only copy of the graph at a point in time.
// Nodes and edges are in insertion order. Callers must not mutate it; take a
// new snapshot after every store mutation.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// HasNode reports whether the snapshot contains a node with the given id.
func (s Snapshot) HasNode(id string) bool {
	_, ok := s.Node(id)
	return ok
}

// Node returns the node with the given id.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns the ids of all nodes in snapshot order.
func (s Snapshot) NodeIDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Stats holds aggregate counts about the graph.
type Stats struct {
	NodeCount          int `json:"node_count"`
	EdgeCount          int `json:"edge_count"`
	OneWayCount        int `json:"one_way_count"`
	BidirectionalCount int `json:"bidirectional_count"`
}

// StatsOf computes aggregate counts for a snapshot.
func StatsOf(s Snapshot) Stats {
	st := Stats{NodeCount: len(s.Nodes), EdgeCount: len(s.Edges)}
	for _, e := range s.Edges {
		if e.Bidirectional {
			st.BidirectionalCount++
		} else {
			st.OneWayCount++
		}
	}
	return st
}
