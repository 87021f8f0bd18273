package server

import (
	"github.com/imyousuf/waypoint/internal/graph"
	"github.com/imyousuf/waypoint/internal/history"
	"github.com/imyousuf/waypoint/internal/pathfind"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`
	// Code is a stable machine-readable error code.
	Code string `json:"code"`
}

// Error codes.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeValidation     = "VALIDATION_FAILED"
	CodeConflict       = "CONFLICT"
	CodeNoPath         = "NO_PATH"
	CodeNotFound       = "NOT_FOUND"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInternal       = "INTERNAL"
)

// GraphResponse is the current graph with its counts.
type GraphResponse struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
	Stats graph.Stats  `json:"stats"`
	Saved bool         `json:"saved"`
}

// AddNodeRequest creates a node.
type AddNodeRequest struct {
	ID string `json:"id" binding:"required"`
}

// AddNodeResponse reports whether the node was new.
type AddNodeResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// UpdateNodeRequest renames, recolors or moves a node. Absent fields are
// left unchanged; the rename is applied last.
type UpdateNodeRequest struct {
	ID    *string  `json:"id"`
	Color *string  `json:"color"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
}

// EdgeRequest creates or updates an edge.
type EdgeRequest struct {
	Source        string   `json:"source" binding:"required"`
	Target        string   `json:"target" binding:"required"`
	Weight        *float64 `json:"weight"`
	Bidirectional *bool    `json:"bidirectional"`
}

// PathRequest asks for a shortest path.
type PathRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// PathResponse is a found shortest path and the id of its history entry.
type PathResponse struct {
	*pathfind.Result
	HistoryID string `json:"history_id,omitempty"`
}

// HistoryResponse lists ledger entries, most recent first.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Saved   bool            `json:"saved"`
}

// ReplayResponse is a stored path that can be shown again. CurrentDistance
// re-measures the path on today's graph and is absent when a hop no longer
// exists.
type ReplayResponse struct {
	ID              string   `json:"id"`
	Path            []string `json:"path"`
	Distance        float64  `json:"distance"`
	CurrentDistance *float64 `json:"current_distance,omitempty"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Ephemeral bool   `json:"ephemeral"`
}
