package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/imyousuf/waypoint/internal/workspace"
)

// NewWorkspaceRegistry returns a registry holding every workspace tool.
func NewWorkspaceRegistry(ws *workspace.Workspace) *Registry {
	r := NewRegistry()
	r.Register(
		&graphTool{ws: ws},
		&addNodeTool{ws: ws},
		&removeNodeTool{ws: ws},
		&connectTool{ws: ws},
		&removeEdgeTool{ws: ws},
		&findPathTool{ws: ws},
		&listHistoryTool{ws: ws},
		&replayPathTool{ws: ws},
	)
	return r
}

func objectSchema(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func toolError(err error) (string, bool) {
	return fmt.Sprintf("Error: %v", err), false
}

func toolJSON(v any) (string, bool) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err)
	}
	return string(data), true
}

// --- get_graph ---

type graphTool struct {
	ws *workspace.Workspace
}

func (t *graphTool) Name() string { return "get_graph" }

func (t *graphTool) Description() string {
	return "Get every node and edge of the graph with one-way and bidirectional edge counts."
}

func (t *graphTool) Parameters() map[string]any { return objectSchema(nil, map[string]any{}) }

func (t *graphTool) Execute(_ context.Context, _ map[string]any) (string, bool) {
	snap := t.ws.Snapshot()
	return toolJSON(map[string]any{
		"nodes": snap.Nodes,
		"edges": snap.Edges,
		"stats": t.ws.Stats(),
	})
}

// --- add_node ---

type addNodeTool struct {
	ws *workspace.Workspace
}

func (t *addNodeTool) Name() string { return "add_node" }

func (t *addNodeTool) Description() string {
	return "Add a node. Adding an existing id changes nothing."
}

func (t *addNodeTool) Parameters() map[string]any {
	return objectSchema([]string{"id"}, map[string]any{
		"id": prop("string", "The node id, e.g. 'Paris'."),
	})
}

func (t *addNodeTool) Execute(ctx context.Context, args map[string]any) (string, bool) {
	id, err := stringArg(args, "id")
	if err != nil {
		return toolError(err)
	}
	if !t.ws.AddNode(ctx, id) {
		return fmt.Sprintf("Node %s already exists", id), true
	}
	return fmt.Sprintf("Added node %s", id), true
}

// --- remove_node ---

type removeNodeTool struct {
	ws *workspace.Workspace
}

func (t *removeNodeTool) Name() string { return "remove_node" }

func (t *removeNodeTool) Description() string {
	return "Remove a node together with every edge that touches it."
}

func (t *removeNodeTool) Parameters() map[string]any {
	return objectSchema([]string{"id"}, map[string]any{
		"id": prop("string", "The node id to remove."),
	})
}

func (t *removeNodeTool) Execute(ctx context.Context, args map[string]any) (string, bool) {
	id, err := stringArg(args, "id")
	if err != nil {
		return toolError(err)
	}
	if !t.ws.RemoveNode(ctx, id) {
		return fmt.Sprintf("Error: no node %s", id), false
	}
	return fmt.Sprintf("Removed node %s", id), true
}

// --- connect ---

type connectTool struct {
	ws *workspace.Workspace
}

func (t *connectTool) Name() string { return "connect" }

func (t *connectTool) Description() string {
	return "Add or update a weighted edge between two nodes, creating missing nodes. " +
		"Set bidirectional to make the edge usable both ways."
}

func (t *connectTool) Parameters() map[string]any {
	return objectSchema([]string{"source", "target", "weight"}, map[string]any{
		"source":        prop("string", "The edge's source node."),
		"target":        prop("string", "The edge's target node."),
		"weight":        prop("number", "A non-negative edge weight."),
		"bidirectional": prop("boolean", "Whether the edge goes both ways (default false)."),
	})
}

func (t *connectTool) Execute(ctx context.Context, args map[string]any) (string, bool) {
	source, err := stringArg(args, "source")
	if err != nil {
		return toolError(err)
	}
	target, err := stringArg(args, "target")
	if err != nil {
		return toolError(err)
	}
	weight, ok := args["weight"].(float64)
	if !ok {
		return "Error: weight must be a number", false
	}
	e, err := t.ws.Connect(ctx, source, target, weight, boolArg(args, "bidirectional", false))
	if err != nil {
		return toolError(err)
	}
	return toolJSON(e)
}

// --- remove_edge ---

type removeEdgeTool struct {
	ws *workspace.Workspace
}

func (t *removeEdgeTool) Name() string { return "remove_edge" }

func (t *removeEdgeTool) Description() string {
	return "Remove the edge from source to target. A bidirectional edge is matched from either end."
}

func (t *removeEdgeTool) Parameters() map[string]any {
	return objectSchema([]string{"source", "target"}, map[string]any{
		"source": prop("string", "The edge's source node."),
		"target": prop("string", "The edge's target node."),
	})
}

func (t *removeEdgeTool) Execute(ctx context.Context, args map[string]any) (string, bool) {
	source, err := stringArg(args, "source")
	if err != nil {
		return toolError(err)
	}
	target, err := stringArg(args, "target")
	if err != nil {
		return toolError(err)
	}
	if !t.ws.RemoveEdge(ctx, source, target) {
		return fmt.Sprintf("Error: no edge %s -> %s", source, target), false
	}
	return fmt.Sprintf("Removed edge %s -> %s", source, target), true
}

// --- find_path ---

type findPathTool struct {
	ws *workspace.Workspace
}

func (t *findPathTool) Name() string { return "find_path" }

func (t *findPathTool) Description() string {
	return "Find the shortest path between two nodes. The result is saved to the path history unless record is false."
}

func (t *findPathTool) Parameters() map[string]any {
	return objectSchema([]string{"start", "end"}, map[string]any{
		"start":  prop("string", "The start node."),
		"end":    prop("string", "The end node."),
		"record": prop("boolean", "Save the result to history (default true)."),
	})
}

type pathResult struct {
	Path      []string `json:"path"`
	Distance  float64  `json:"distance"`
	HistoryID string   `json:"history_id,omitempty"`
}

func (t *findPathTool) Execute(ctx context.Context, args map[string]any) (string, bool) {
	start, err := stringArg(args, "start")
	if err != nil {
		return toolError(err)
	}
	end, err := stringArg(args, "end")
	if err != nil {
		return toolError(err)
	}

	if !boolArg(args, "record", true) {
		res, err := t.ws.ShortestPath(start, end)
		if err != nil {
			return toolError(err)
		}
		return toolJSON(pathResult{Path: res.Path, Distance: res.Distance})
	}

	res, entry, err := t.ws.Query(ctx, start, end)
	if err != nil {
		return toolError(err)
	}
	return toolJSON(pathResult{Path: res.Path, Distance: res.Distance, HistoryID: entry.ID})
}

// --- list_history ---

type listHistoryTool struct {
	ws *workspace.Workspace
}

func (t *listHistoryTool) Name() string { return "list_history" }

func (t *listHistoryTool) Description() string {
	return "List previously found paths, most recent first."
}

func (t *listHistoryTool) Parameters() map[string]any {
	return objectSchema(nil, map[string]any{
		"limit": prop("integer", "Return at most this many entries (default all)."),
	})
}

func (t *listHistoryTool) Execute(_ context.Context, args map[string]any) (string, bool) {
	entries := t.ws.History()
	if limit, ok := args["limit"].(float64); ok && limit > 0 && int(limit) < len(entries) {
		entries = entries[:int(limit)]
	}
	return toolJSON(entries)
}

// --- replay_path ---

type replayPathTool struct {
	ws *workspace.Workspace
}

func (t *replayPathTool) Name() string { return "replay_path" }

func (t *replayPathTool) Description() string {
	return "Return the stored path of a history entry. Fails when an endpoint no longer exists."
}

func (t *replayPathTool) Parameters() map[string]any {
	return objectSchema([]string{"id"}, map[string]any{
		"id": prop("string", "The history entry id."),
	})
}

func (t *replayPathTool) Execute(_ context.Context, args map[string]any) (string, bool) {
	id, err := stringArg(args, "id")
	if err != nil {
		return toolError(err)
	}
	path, err := t.ws.Replay(id)
	if err != nil {
		return toolError(err)
	}
	return strings.Join(path, " -> "), true
}
