package embedded

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/imyousuf/waypoint/internal/graph"
	"github.com/imyousuf/waypoint/internal/history"
)

// exportRecord is the JSON-lines format for backup/restore.
type exportRecord struct {
	Kind string          `json:"kind"` // "node", "edge" or "history"
	Data json.RawMessage `json:"data"`
}

var (
	_ graph.Exporter = (*Store)(nil)
	_ graph.Importer = (*Store)(nil)
)

// Export writes the graph and the history to w in JSON-lines format.
// History entries are written oldest first.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	snap, err := s.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("export graph: %w", err)
	}
	entries, err := s.History().Load(ctx)
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}

	enc := json.NewEncoder(w)
	emit := func(kind string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", kind, err)
		}
		if err := enc.Encode(exportRecord{Kind: kind, Data: data}); err != nil {
			return fmt.Errorf("encode %s: %w", kind, err)
		}
		return nil
	}

	for _, n := range snap.Nodes {
		if err := emit("node", n); err != nil {
			return err
		}
	}
	for _, e := range snap.Edges {
		if err := emit("edge", e); err != nil {
			return err
		}
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if err := emit("history", entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Import reads JSON-lines from r, validates the graph, and replaces all
// stored data with it.
func (s *Store) Import(ctx context.Context, r io.Reader) error {
	var (
		snap    graph.Snapshot
		entries []history.Entry
	)

	scanner := bufio.NewScanner(r)
	// Increase buffer for potentially large lines.
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec exportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}

		switch rec.Kind {
		case "node":
			var node graph.Node
			if err := json.Unmarshal(rec.Data, &node); err != nil {
				return fmt.Errorf("unmarshal node: %w", err)
			}
			snap.Nodes = append(snap.Nodes, node)
		case "edge":
			var edge graph.Edge
			if err := json.Unmarshal(rec.Data, &edge); err != nil {
				return fmt.Errorf("unmarshal edge: %w", err)
			}
			snap.Edges = append(snap.Edges, edge)
		case "history":
			var e history.Entry
			if err := json.Unmarshal(rec.Data, &e); err != nil {
				return fmt.Errorf("unmarshal history entry: %w", err)
			}
			// Records are oldest first; the ledger is most recent first.
			entries = append([]history.Entry{e}, entries...)
		default:
			return fmt.Errorf("unknown record kind: %q", rec.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// Validate before touching the database.
	validated := graph.NewStore()
	if err := validated.Restore(snap); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if err := s.SaveGraph(ctx, validated.Snapshot()); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	if err := s.History().Save(ctx, entries); err != nil {
		return fmt.Errorf("import history: %w", err)
	}
	return nil
}
