// Package workspace ties the graph store, path engine and history ledger to
// on-disk storage and serializes access to them, so the CLI, the HTTP API
// and the file watcher can share one graph.
//
// Every graph mutation is saved to the embedded store before the method
// returns. Save failures are logged and counted but never undo the change:
// the session continues and GraphUnsaved reports the gap.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/imyousuf/waypoint/internal/graph"
	"github.com/imyousuf/waypoint/internal/graph/embedded"
	"github.com/imyousuf/waypoint/internal/history"
	"github.com/imyousuf/waypoint/internal/metrics"
	"github.com/imyousuf/waypoint/internal/pathfind"
)

// Options configures Open.
type Options struct {
	// DBPath is the Badger directory. Empty means an in-memory database.
	DBPath string
	// MaxHistory caps the history ledger; zero keeps every entry.
	MaxHistory int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics may be nil.
	Metrics *metrics.Recorder
}

// Workspace is a graph with its history and storage. It is safe for
// concurrent use.
type Workspace struct {
	mu      sync.Mutex
	graph   *graph.Store
	ledger  *history.Ledger
	db      *embedded.Store
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Recorder

	ephemeral    bool
	graphUnsaved bool
}

// Open opens or creates the workspace database and loads the saved graph
// and history. If the database at DBPath cannot be opened the workspace
// falls back to an in-memory database and Ephemeral reports true.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	w := &Workspace{
		graph:   graph.NewStore(),
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	var err error
	if opts.DBPath == "" {
		w.db, err = embedded.NewInMemoryStore()
		w.ephemeral = true
	} else {
		w.db, err = embedded.NewStore(opts.DBPath)
		if err != nil {
			w.logger.Warn("workspace database unavailable; changes will not be saved",
				"path", opts.DBPath, "error", err)
			w.db, err = embedded.NewInMemoryStore()
			w.ephemeral = true
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open workspace store: %w", err)
	}

	w.reload(ctx)
	return w, nil
}

// reload replaces the in-memory graph and ledger with what the database
// holds. Unreadable or invalid graph data leaves an empty graph.
func (w *Workspace) reload(ctx context.Context) {
	w.graph.Clear()
	snap, err := w.db.LoadGraph(ctx)
	if err != nil {
		w.logger.Warn("saved graph could not be loaded; starting empty", "error", err)
	} else if err := w.graph.Restore(snap); err != nil {
		w.logger.Warn("saved graph is invalid; starting empty", "error", err)
	}
	w.graphUnsaved = false

	w.ledger = history.Open(ctx, w.db.History(), history.Options{
		MaxEntries: w.opts.MaxHistory,
		Logger:     w.logger,
	})
	w.updateGauges()
}

// Close releases the database.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.db.Close()
}

// Ephemeral reports whether nothing outlives the process.
func (w *Workspace) Ephemeral() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ephemeral
}

// GraphUnsaved reports whether the latest graph change failed to save.
func (w *Workspace) GraphUnsaved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graphUnsaved
}

// HistoryUnsaved reports whether the latest history change failed to save.
func (w *Workspace) HistoryUnsaved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Unsaved()
}

// Snapshot returns a copy of the current graph.
func (w *Workspace) Snapshot() graph.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.Snapshot()
}

// Stats returns the current graph counts.
func (w *Workspace) Stats() graph.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.Stats()
}

// AddNode inserts a node. It reports whether the node was new.
func (w *Workspace) AddNode(ctx context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.graph.AddNode(id) {
		return false
	}
	w.saveGraph(ctx, "add_node")
	return true
}

// RenameNode renames a node and rewrites its edges.
func (w *Workspace) RenameNode(ctx context.Context, oldID, newID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.RenameNode(oldID, newID); err != nil {
		return err
	}
	w.saveGraph(ctx, "rename_node")
	return nil
}

// RemoveNode deletes a node and its incident edges.
func (w *Workspace) RemoveNode(ctx context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.graph.RemoveNode(id) {
		return false
	}
	w.saveGraph(ctx, "remove_node")
	return true
}

// SetNodeColor sets a node's display color.
func (w *Workspace) SetNodeColor(ctx context.Context, id, color string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.SetNodeColor(id, color); err != nil {
		return err
	}
	w.saveGraph(ctx, "set_node_color")
	return nil
}

// SetNodePosition stores a node's layout coordinates.
func (w *Workspace) SetNodePosition(ctx context.Context, id string, x, y float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.SetNodePosition(id, x, y); err != nil {
		return err
	}
	w.saveGraph(ctx, "set_node_position")
	return nil
}

// AddEdge creates an edge or updates the existing one.
func (w *Workspace) AddEdge(ctx context.Context, source, target string, weight float64, bidirectional bool) (graph.Edge, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.graph.AddOrUpdateEdge(source, target, weight, bidirectional)
	if err != nil {
		return graph.Edge{}, err
	}
	w.saveGraph(ctx, "add_edge")
	return e, nil
}

// Connect is AddEdge that first adds missing endpoints. If the edge is
// rejected the endpoints it added are removed again.
func (w *Workspace) Connect(ctx context.Context, source, target string, weight float64, bidirectional bool) (graph.Edge, error) {
	source, target = strings.TrimSpace(source), strings.TrimSpace(target)
	w.mu.Lock()
	defer w.mu.Unlock()
	var added []string
	for _, id := range []string{source, target} {
		if w.graph.AddNode(id) {
			added = append(added, id)
		}
	}
	e, err := w.graph.AddOrUpdateEdge(source, target, weight, bidirectional)
	if err != nil {
		for _, id := range added {
			w.graph.RemoveNode(id)
		}
		return graph.Edge{}, err
	}
	w.saveGraph(ctx, "connect")
	return e, nil
}

// SetEdgeWeight changes the weight of an existing edge.
func (w *Workspace) SetEdgeWeight(ctx context.Context, source, target string, weight float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.SetEdgeWeight(source, target, weight); err != nil {
		return err
	}
	w.saveGraph(ctx, "set_edge_weight")
	return nil
}

// SetEdgeDirection makes an existing edge one-way or bidirectional.
func (w *Workspace) SetEdgeDirection(ctx context.Context, source, target string, bidirectional bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.SetEdgeDirection(source, target, bidirectional); err != nil {
		return err
	}
	w.saveGraph(ctx, "set_edge_direction")
	return nil
}

// NodeUpdate lists the node fields to change; nil fields are left alone.
type NodeUpdate struct {
	ID    *string
	Color *string
	X, Y  *float64
}

// UpdateNode applies every field of u to node id, renaming last. Either all
// fields are applied or, on error, none are. It returns the updated node.
func (w *Workspace) UpdateNode(ctx context.Context, id string, u NodeUpdate) (graph.Node, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.applyAll("update_node", func(g *graph.Store) error {
		node, ok := g.Node(id)
		if !ok {
			return fmt.Errorf("%w: node %q does not exist", graph.ErrValidation, id)
		}
		if u.Color != nil {
			if err := g.SetNodeColor(id, *u.Color); err != nil {
				return err
			}
		}
		if u.X != nil || u.Y != nil {
			x, y := node.X, node.Y
			if u.X != nil {
				x = *u.X
			}
			if u.Y != nil {
				y = *u.Y
			}
			if err := g.SetNodePosition(id, x, y); err != nil {
				return err
			}
		}
		if u.ID != nil && *u.ID != id {
			if err := g.RenameNode(id, *u.ID); err != nil {
				return err
			}
			id = strings.TrimSpace(*u.ID)
		}
		return nil
	})
	if err != nil {
		return graph.Node{}, err
	}
	w.saveGraph(ctx, "update_node")
	node, _ := w.graph.Node(id)
	return node, nil
}

// EdgeUpdate lists the edge fields to change; nil fields are left alone.
type EdgeUpdate struct {
	Weight        *float64
	Bidirectional *bool
}

// UpdateEdge changes the weight and direction of the edge joining source
// and target. Either both changes are applied or, on error, neither is.
func (w *Workspace) UpdateEdge(ctx context.Context, source, target string, u EdgeUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.applyAll("update_edge", func(g *graph.Store) error {
		if u.Weight != nil {
			if err := g.SetEdgeWeight(source, target, *u.Weight); err != nil {
				return err
			}
		}
		if u.Bidirectional != nil {
			return g.SetEdgeDirection(source, target, *u.Bidirectional)
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.saveGraph(ctx, "update_edge")
	return nil
}

// applyAll runs fn against the graph and puts the previous graph back if fn
// fails. Callers hold w.mu.
func (w *Workspace) applyAll(op string, fn func(g *graph.Store) error) error {
	before := w.graph.Snapshot()
	err := fn(w.graph)
	if err == nil {
		return nil
	}
	if rerr := w.graph.Restore(before); rerr != nil {
		w.logger.Error("graph rollback failed", "operation", op, "error", rerr)
	}
	return err
}

// RemoveEdge deletes an edge.
func (w *Workspace) RemoveEdge(ctx context.Context, source, target string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.graph.RemoveEdge(source, target) {
		return false
	}
	w.saveGraph(ctx, "remove_edge")
	return true
}

// Clear removes every node and edge. History is kept.
func (w *Workspace) Clear(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.graph.Clear()
	w.saveGraph(ctx, "clear")
}

// LoadSample replaces the graph with the European cities sample.
func (w *Workspace) LoadSample(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.graph.LoadSample()
	w.saveGraph(ctx, "load_sample")
}

// ReplaceGraph validates snap and makes it the current graph. On error the
// current graph is unchanged.
func (w *Workspace) ReplaceGraph(ctx context.Context, snap graph.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.Restore(snap); err != nil {
		return err
	}
	w.saveGraph(ctx, "replace")
	return nil
}

// ImportDocument replaces the graph with an export document.
func (w *Workspace) ImportDocument(ctx context.Context, doc graph.ExportDocument) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.graph.ImportDocument(doc); err != nil {
		return err
	}
	w.saveGraph(ctx, "import")
	return nil
}

// FindPath computes the shortest path from start to end on the current
// graph and records it in the history.
func (w *Workspace) FindPath(ctx context.Context, start, end string) (*pathfind.Result, error) {
	res, _, err := w.Query(ctx, start, end)
	return res, err
}

// Query is FindPath that also returns the history entry it recorded.
func (w *Workspace) Query(ctx context.Context, start, end string) (*pathfind.Result, history.Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	began := time.Now()
	res, err := pathfind.ShortestPath(w.graph.Snapshot(), start, end)
	elapsed := time.Since(began)
	switch {
	case errors.Is(err, pathfind.ErrNoPath):
		w.metrics.ObservePath(metrics.ResultNoPath, elapsed, 0)
		return nil, history.Entry{}, err
	case err != nil:
		w.metrics.ObservePath(metrics.ResultInvalid, elapsed, 0)
		return nil, history.Entry{}, err
	}
	w.metrics.ObservePath(metrics.ResultFound, elapsed, len(res.Visited))

	entry := w.ledger.Record(ctx, res.Start, res.End, res.Path, res.Distance)
	w.afterHistoryChange()
	w.logger.Debug("path found", "start", start, "end", end, "distance", res.Distance,
		"hops", len(res.Path)-1, "visited", len(res.Visited), "elapsed", elapsed)
	return res, entry, nil
}

// ShortestPath computes a path without recording it or counting it in
// metrics.
func (w *Workspace) ShortestPath(start, end string) (*pathfind.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return pathfind.ShortestPath(w.graph.Snapshot(), start, end)
}

// PathLength re-measures a path on the current graph.
func (w *Workspace) PathLength(path []string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return pathfind.PathLength(w.graph.Snapshot(), path)
}

// History returns the ledger entries, most recent first.
func (w *Workspace) History() []history.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Entries()
}

// HistoryEntry returns one ledger entry.
func (w *Workspace) HistoryEntry(id string) (history.Entry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Get(id)
}

// RemoveHistory deletes one ledger entry.
func (w *Workspace) RemoveHistory(ctx context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ledger.Remove(ctx, id) {
		return false
	}
	w.afterHistoryChange()
	return true
}

// ClearHistory deletes every ledger entry.
func (w *Workspace) ClearHistory(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ledger.Clear(ctx)
	w.afterHistoryChange()
}

// Replay returns a stored path if its endpoints are still in the graph.
func (w *Workspace) Replay(id string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Replay(id, w.graph.Snapshot())
}

// Backup writes the saved graph and history as JSON lines.
func (w *Workspace) Backup(ctx context.Context, out io.Writer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.db.Export(ctx, out)
}

// Restore replaces the database content with a backup and reloads the
// graph and history from it.
func (w *Workspace) Restore(ctx context.Context, in io.Reader) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.db.Import(ctx, in); err != nil {
		return err
	}
	w.reload(ctx)
	return nil
}

// MigrateLegacyHistory merges a history exported by the browser tool and
// reloads the ledger.
func (w *Workspace) MigrateLegacyHistory(ctx context.Context, in io.Reader, dryRun bool) (*embedded.MigrateResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	res, err := w.db.MigrateLegacyHistory(ctx, in, dryRun)
	if err != nil {
		return res, err
	}
	if !dryRun && res.EntriesMigrated > 0 {
		w.ledger = history.Open(ctx, w.db.History(), history.Options{
			MaxEntries: w.opts.MaxHistory,
			Logger:     w.logger,
		})
		w.updateGauges()
	}
	return res, nil
}

// saveGraph persists the graph after a mutation. Callers hold w.mu.
func (w *Workspace) saveGraph(ctx context.Context, op string) {
	w.metrics.Mutated(op)
	w.updateGauges()
	if err := w.db.SaveGraph(ctx, w.graph.Snapshot()); err != nil {
		w.graphUnsaved = true
		w.metrics.PersistenceFailed("graph")
		w.logger.Warn("graph not saved; continuing in memory", "operation", op, "error", err)
		return
	}
	w.graphUnsaved = false
}

func (w *Workspace) afterHistoryChange() {
	if w.ledger.Unsaved() {
		w.metrics.PersistenceFailed("history")
	}
	w.metrics.SetHistorySize(w.ledger.Len())
}

func (w *Workspace) updateGauges() {
	st := w.graph.Stats()
	w.metrics.SetGraphSize(st.NodeCount, st.OneWayCount, st.BidirectionalCount)
	if w.ledger != nil {
		w.metrics.SetHistorySize(w.ledger.Len())
	}
}
