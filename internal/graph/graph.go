// Package graph holds the authoritative, in-memory weighted graph: nodes
// identified by string ids and edges that are either one-way or
// bidirectional.
//
// A Store has exactly one logical writer and is not safe for concurrent use.
// Readers that need a stable view call Snapshot, which returns a deep copy.
package graph

import (
	"fmt"
	"math"
	"strings"
)

// Store owns every node and edge of one graph.
//
// Invariants kept by every mutation:
//   - node ids are unique;
//   - every edge endpoint is a present node;
//   - weights are finite and non-negative;
//   - an unordered pair is joined either by one bidirectional record or by
//     at most two opposite one-way records.
type Store struct {
	nodes []Node
	index map[string]int // node id -> position in nodes
	edges []Edge
}

// NewStore returns an empty graph store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// AddNode inserts a node if no node with that id exists yet. Adding an
// existing id is a no-op. Surrounding whitespace is trimmed and empty ids are
// ignored. It reports whether a node was inserted.
func (s *Store) AddNode(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = len(s.nodes)
	s.nodes = append(s.nodes, Node{ID: id})
	return true
}

// HasNode reports whether a node with the given id exists.
func (s *Store) HasNode(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.nodes) }

// RenameNode changes a node's id and rewrites every edge endpoint that
// referenced the old id. Renaming a node to its current id is a no-op.
func (s *Store) RenameNode(oldID, newID string) error {
	newID = strings.TrimSpace(newID)
	i, ok := s.index[oldID]
	if !ok {
		return fmt.Errorf("%w: node %q does not exist", ErrValidation, oldID)
	}
	if newID == "" {
		return fmt.Errorf("%w: new id for %q is empty", ErrValidation, oldID)
	}
	if newID == oldID {
		return nil
	}
	if _, taken := s.index[newID]; taken {
		return fmt.Errorf("%w: node %q already exists", ErrConflict, newID)
	}

	s.nodes[i].ID = newID
	delete(s.index, oldID)
	s.index[newID] = i
	for j := range s.edges {
		if s.edges[j].Source == oldID {
			s.edges[j].Source = newID
		}
		if s.edges[j].Target == oldID {
			s.edges[j].Target = newID
		}
	}
	return nil
}

// RemoveNode deletes a node together with every edge touching it, in either
// direction. It reports whether the node existed.
func (s *Store) RemoveNode(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	s.reindex()

	kept := s.edges[:0]
	for _, e := range s.edges {
		if !e.Touches(id) {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	return true
}

// SetNodeColor sets the display color carried by a node. An empty color
// resets it to the renderer's default.
func (s *Store) SetNodeColor(id, color string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: node %q does not exist", ErrValidation, id)
	}
	s.nodes[i].Color = strings.TrimSpace(color)
	return nil
}

// SetNodePosition records layout coordinates for a node.
func (s *Store) SetNodePosition(id string, x, y float64) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: node %q does not exist", ErrValidation, id)
	}
	s.nodes[i].X, s.nodes[i].Y = x, y
	return nil
}

// AddOrUpdateEdge creates an edge from source to target, or updates the
// record that already joins them.
//
// An existing record gets the new weight. Requesting a bidirectional edge
// upgrades a one-way record in either orientation in place, and absorbs the
// opposite one-way record if there is one. A bidirectional record is never
// downgraded here; use SetEdgeDirection for that. Endpoint ids are trimmed
// like AddNode trims them.
func (s *Store) AddOrUpdateEdge(source, target string, weight float64, bidirectional bool) (Edge, error) {
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	if err := s.validateEdge(source, target, weight); err != nil {
		return Edge{}, err
	}

	if i := s.directed(source, target); i >= 0 {
		s.edges[i].Weight = weight
		if bidirectional && !s.edges[i].Bidirectional {
			i = s.upgrade(i)
		}
		return s.edges[i], nil
	}

	if i := s.directed(target, source); i >= 0 {
		switch {
		case s.edges[i].Bidirectional:
			s.edges[i].Weight = weight
			return s.edges[i], nil
		case bidirectional:
			s.edges[i].Weight = weight
			i = s.upgrade(i)
			return s.edges[i], nil
		}
	}

	e := Edge{Source: source, Target: target, Weight: weight, Bidirectional: bidirectional}
	s.edges = append(s.edges, e)
	return e, nil
}

// SetEdgeWeight changes the weight of the edge traversable from source to
// target.
func (s *Store) SetEdgeWeight(source, target string, weight float64) error {
	if err := checkWeight(weight); err != nil {
		return err
	}
	i := s.traversable(source, target)
	if i < 0 {
		return fmt.Errorf("%w: no edge %s -> %s", ErrValidation, source, target)
	}
	s.edges[i].Weight = weight
	return nil
}

// SetEdgeDirection switches the edge joining source and target between
// one-way and bidirectional. A downgraded edge keeps the orientation
// source -> target.
func (s *Store) SetEdgeDirection(source, target string, bidirectional bool) error {
	if bidirectional {
		i := s.directed(source, target)
		if i < 0 {
			i = s.directed(target, source)
		}
		if i < 0 {
			return fmt.Errorf("%w: no edge between %s and %s", ErrValidation, source, target)
		}
		if !s.edges[i].Bidirectional {
			s.upgrade(i)
		}
		return nil
	}

	i := s.traversable(source, target)
	if i < 0 {
		return fmt.Errorf("%w: no edge %s -> %s", ErrValidation, source, target)
	}
	e := &s.edges[i]
	if e.Bidirectional {
		e.Bidirectional = false
		e.Source, e.Target = source, target
	}
	return nil
}

// RemoveEdge deletes the one-way record source -> target, or the
// bidirectional record joining the pair in either orientation. It reports
// whether a record was removed.
func (s *Store) RemoveEdge(source, target string) bool {
	i := s.traversable(source, target)
	if i < 0 {
		return false
	}
	s.edges = append(s.edges[:i], s.edges[i+1:]...)
	return true
}

// Clear removes every node and edge.
func (s *Store) Clear() {
	s.nodes = nil
	s.edges = nil
	s.index = make(map[string]int)
}

// Snapshot returns a deep copy of the current graph.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes: make([]Node, len(s.nodes)),
		Edges: make([]Edge, len(s.edges)),
	}
	copy(snap.Nodes, s.nodes)
	copy(snap.Edges, s.edges)
	return snap
}

// Stats returns aggregate counts for the current graph.
func (s *Store) Stats() Stats {
	return StatsOf(Snapshot{Nodes: s.nodes, Edges: s.edges})
}

// Restore replaces the store's contents with the given snapshot. The
// snapshot is validated first; on error the store is left untouched.
func (s *Store) Restore(snap Snapshot) error {
	fresh := NewStore()
	for _, n := range snap.Nodes {
		if !fresh.AddNode(n.ID) {
			return fmt.Errorf("%w: duplicate or empty node id %q", ErrValidation, n.ID)
		}
		i := fresh.index[strings.TrimSpace(n.ID)]
		fresh.nodes[i].X, fresh.nodes[i].Y, fresh.nodes[i].Color = n.X, n.Y, n.Color
	}
	for _, e := range snap.Edges {
		if _, err := fresh.AddOrUpdateEdge(e.Source, e.Target, e.Weight, e.Bidirectional); err != nil {
			return err
		}
	}
	*s = *fresh
	return nil
}

func (s *Store) validateEdge(source, target string, weight float64) error {
	if source == target {
		return fmt.Errorf("%w: self-loop on %q", ErrValidation, source)
	}
	if !s.HasNode(source) {
		return fmt.Errorf("%w: source node %q does not exist", ErrValidation, source)
	}
	if !s.HasNode(target) {
		return fmt.Errorf("%w: target node %q does not exist", ErrValidation, target)
	}
	return checkWeight(weight)
}

func checkWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: weight must be a finite number", ErrValidation)
	}
	if weight < 0 {
		return fmt.Errorf("%w: weight %v is negative", ErrValidation, weight)
	}
	return nil
}

// directed returns the index of the record stored as source -> target, or -1.
func (s *Store) directed(source, target string) int {
	for i, e := range s.edges {
		if e.Source == source && e.Target == target {
			return i
		}
	}
	return -1
}

// traversable returns the index of the record that allows moving from
// source to target, or -1.
func (s *Store) traversable(source, target string) int {
	if i := s.directed(source, target); i >= 0 {
		return i
	}
	if i := s.directed(target, source); i >= 0 && s.edges[i].Bidirectional {
		return i
	}
	return -1
}

// upgrade marks edge i bidirectional and drops the opposite one-way record,
// returning the (possibly shifted) index of edge i.
func (s *Store) upgrade(i int) int {
	s.edges[i].Bidirectional = true
	e := s.edges[i]
	if j := s.directed(e.Target, e.Source); j >= 0 {
		s.edges = append(s.edges[:j], s.edges[j+1:]...)
		if j < i {
			i--
		}
	}
	return i
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}
