package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imyousuf/waypoint/internal/graph"
	"github.com/imyousuf/waypoint/internal/history"
	"github.com/imyousuf/waypoint/internal/pathfind"
	"github.com/imyousuf/waypoint/internal/workspace"
)

const requestIDHeader = "X-Request-ID"

// Handlers serves the graph, path and history API over one workspace.
type Handlers struct {
	ws      *workspace.Workspace
	logger  *slog.Logger
	version string
}

// NewHandlers creates the API handlers.
func NewHandlers(ws *workspace.Workspace, logger *slog.Logger, version string) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{ws: ws, logger: logger, version: version}
}

func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	return id
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return h.logger.With("request_id", getOrCreateRequestID(c), "handler", handler)
}

// writeError maps a domain error to a status code and error body.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, graph.ErrValidation):
		status, code = http.StatusBadRequest, CodeValidation
	case errors.Is(err, graph.ErrConflict):
		status, code = http.StatusConflict, CodeConflict
	case errors.Is(err, pathfind.ErrNoPath):
		status, code = http.StatusNotFound, CodeNoPath
	case errors.Is(err, history.ErrUnavailable):
		status, code = http.StatusGone, CodeUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Info("request rejected", "error", err, "status", status)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: CodeInvalidRequest})
}

func (h *Handlers) graphResponse() GraphResponse {
	snap := h.ws.Snapshot()
	return GraphResponse{
		Nodes: snap.Nodes,
		Edges: snap.Edges,
		Stats: graph.StatsOf(snap),
		Saved: !h.ws.GraphUnsaved(),
	}
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: h.version, Ephemeral: h.ws.Ephemeral()})
}

// HandleGetGraph returns the current graph.
func (h *Handlers) HandleGetGraph(c *gin.Context) {
	c.JSON(http.StatusOK, h.graphResponse())
}

// HandleExportGraph returns the `{nodes, links}` export document.
func (h *Handlers) HandleExportGraph(c *gin.Context) {
	c.JSON(http.StatusOK, h.ws.Snapshot().Export())
}

// HandleImportGraph replaces the graph with an export document.
func (h *Handlers) HandleImportGraph(c *gin.Context) {
	logger := h.requestLogger(c, "HandleImportGraph")
	var doc graph.ExportDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		badRequest(c, logger, err)
		return
	}
	if err := h.ws.ImportDocument(c.Request.Context(), doc); err != nil {
		writeError(c, logger, err)
		return
	}
	logger.Info("graph imported", "nodes", len(doc.Nodes), "links", len(doc.Links))
	c.JSON(http.StatusOK, h.graphResponse())
}

// HandleLoadSample replaces the graph with the sample graph.
func (h *Handlers) HandleLoadSample(c *gin.Context) {
	logger := h.requestLogger(c, "HandleLoadSample")
	h.ws.LoadSample(c.Request.Context())
	logger.Info("sample graph loaded")
	c.JSON(http.StatusOK, h.graphResponse())
}

// HandleClearGraph removes every node and edge.
func (h *Handlers) HandleClearGraph(c *gin.Context) {
	logger := h.requestLogger(c, "HandleClearGraph")
	h.ws.Clear(c.Request.Context())
	logger.Info("graph cleared")
	c.Status(http.StatusNoContent)
}

// HandleAddNode creates a node. Adding an existing node is not an error.
func (h *Handlers) HandleAddNode(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAddNode")
	var req AddNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	created := h.ws.AddNode(c.Request.Context(), req.ID)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, AddNodeResponse{ID: req.ID, Created: created})
}

// HandleUpdateNode recolors, moves and renames a node.
func (h *Handlers) HandleUpdateNode(c *gin.Context) {
	logger := h.requestLogger(c, "HandleUpdateNode")
	id := c.Param("id")
	var req UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	if !h.ws.Snapshot().HasNode(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "node " + id + " does not exist", Code: CodeNotFound})
		return
	}

	node, err := h.ws.UpdateNode(c.Request.Context(), id, workspace.NodeUpdate{
		ID: req.ID, Color: req.Color, X: req.X, Y: req.Y,
	})
	if err != nil {
		writeError(c, logger, err)
		return
	}
	if node.ID != id {
		logger.Info("node renamed", "from", id, "to", node.ID)
	}
	c.JSON(http.StatusOK, node)
}

// HandleRemoveNode deletes a node and its edges.
func (h *Handlers) HandleRemoveNode(c *gin.Context) {
	logger := h.requestLogger(c, "HandleRemoveNode")
	id := c.Param("id")
	if !h.ws.RemoveNode(c.Request.Context(), id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "node " + id + " does not exist", Code: CodeNotFound})
		return
	}
	logger.Info("node removed", "id", id)
	c.Status(http.StatusNoContent)
}

// HandleAddEdge creates an edge, or updates its weight and direction.
func (h *Handlers) HandleAddEdge(c *gin.Context) {
	logger := h.requestLogger(c, "HandleAddEdge")
	var req EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	if req.Weight == nil {
		badRequest(c, logger, errors.New("weight is required"))
		return
	}
	bidi := req.Bidirectional != nil && *req.Bidirectional
	e, err := h.ws.AddEdge(c.Request.Context(), req.Source, req.Target, *req.Weight, bidi)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// HandleUpdateEdge changes an existing edge's weight or direction.
func (h *Handlers) HandleUpdateEdge(c *gin.Context) {
	logger := h.requestLogger(c, "HandleUpdateEdge")
	var req EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	err := h.ws.UpdateEdge(c.Request.Context(), req.Source, req.Target, workspace.EdgeUpdate{
		Weight: req.Weight, Bidirectional: req.Bidirectional,
	})
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, h.graphResponse())
}

// HandleRemoveEdge deletes the edge named by the source and target query
// parameters.
func (h *Handlers) HandleRemoveEdge(c *gin.Context) {
	logger := h.requestLogger(c, "HandleRemoveEdge")
	source, target := c.Query("source"), c.Query("target")
	if source == "" || target == "" {
		badRequest(c, logger, errors.New("source and target query parameters are required"))
		return
	}
	if !h.ws.RemoveEdge(c.Request.Context(), source, target) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no edge " + source + " -> " + target, Code: CodeNotFound})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleFindPath computes a shortest path and records it in the history.
func (h *Handlers) HandleFindPath(c *gin.Context) {
	logger := h.requestLogger(c, "HandleFindPath")
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	res, entry, err := h.ws.Query(c.Request.Context(), req.Start, req.End)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	logger.Info("path found", "start", req.Start, "end", req.End, "distance", res.Distance)
	c.JSON(http.StatusOK, PathResponse{Result: res, HistoryID: entry.ID})
}

// HandleListHistory returns the ledger, most recent first.
func (h *Handlers) HandleListHistory(c *gin.Context) {
	c.JSON(http.StatusOK, HistoryResponse{Entries: h.ws.History(), Saved: !h.ws.HistoryUnsaved()})
}

// HandleClearHistory deletes every ledger entry.
func (h *Handlers) HandleClearHistory(c *gin.Context) {
	logger := h.requestLogger(c, "HandleClearHistory")
	h.ws.ClearHistory(c.Request.Context())
	logger.Info("history cleared")
	c.Status(http.StatusNoContent)
}

// HandleRemoveHistory deletes one ledger entry.
func (h *Handlers) HandleRemoveHistory(c *gin.Context) {
	id := c.Param("id")
	if !h.ws.RemoveHistory(c.Request.Context(), id) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no history entry " + id, Code: CodeNotFound})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleReplayHistory returns a stored path whose endpoints still exist.
func (h *Handlers) HandleReplayHistory(c *gin.Context) {
	logger := h.requestLogger(c, "HandleReplayHistory")
	id := c.Param("id")
	path, err := h.ws.Replay(id)
	if err != nil {
		if _, ok := h.ws.HistoryEntry(id); !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound})
			return
		}
		writeError(c, logger, err)
		return
	}
	entry, _ := h.ws.HistoryEntry(id)
	resp := ReplayResponse{ID: id, Path: path, Distance: entry.Distance}
	if d, err := h.ws.PathLength(path); err == nil {
		resp.CurrentDistance = &d
	}
	c.JSON(http.StatusOK, resp)
}
