// Package metrics provides the Prometheus instruments for graph, path and
// history activity. A nil *Recorder is valid and records nothing, so
// callers that run without metrics need no special casing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "waypoint"

// Path query results, used as the "result" label.
const (
	ResultFound   = "found"
	ResultNoPath  = "no_path"
	ResultInvalid = "invalid"
)

// Recorder holds every Waypoint collector.
type Recorder struct {
	// PathQueries counts shortest-path queries by result.
	PathQueries *prometheus.CounterVec
	// PathDuration measures shortest-path computation time.
	PathDuration prometheus.Histogram
	// PathVisited measures how many nodes a query settled.
	PathVisited prometheus.Histogram
	// GraphNodes and GraphEdges track the current graph size.
	GraphNodes prometheus.Gauge
	GraphEdges *prometheus.GaugeVec
	// HistoryEntries tracks the ledger size.
	HistoryEntries prometheus.Gauge
	// PersistenceFailures counts failed saves by store ("graph", "history").
	PersistenceFailures *prometheus.CounterVec
	// Mutations counts graph mutations by operation.
	Mutations *prometheus.CounterVec
	// HTTPRequests counts API requests by route and status code.
	HTTPRequests *prometheus.CounterVec
}

// New creates a Recorder whose collectors are registered with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		PathQueries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_queries_total",
			Help:      "Shortest-path queries by result",
		}, []string{"result"}),
		PathDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_query_duration_seconds",
			Help:      "Shortest-path computation time in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}),
		PathVisited: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "path_query_visited_nodes",
			Help:      "Nodes settled per shortest-path query",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 10000},
		}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the graph",
		}),
		GraphEdges: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edge records in the graph by direction",
		}, []string{"direction"}),
		HistoryEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_entries",
			Help:      "Entries in the path history ledger",
		}),
		PersistenceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed saves by store",
		}, []string{"store"}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Graph mutations by operation",
		}, []string{"operation"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObservePath records one shortest-path query.
func (r *Recorder) ObservePath(result string, elapsed time.Duration, visited int) {
	if r == nil {
		return
	}
	r.PathQueries.WithLabelValues(result).Inc()
	if result == ResultInvalid {
		return
	}
	r.PathDuration.Observe(elapsed.Seconds())
	r.PathVisited.Observe(float64(visited))
}

// SetGraphSize updates the graph gauges.
func (r *Recorder) SetGraphSize(nodes, oneWay, bidirectional int) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.WithLabelValues("one_way").Set(float64(oneWay))
	r.GraphEdges.WithLabelValues("bidirectional").Set(float64(bidirectional))
}

// SetHistorySize updates the ledger gauge.
func (r *Recorder) SetHistorySize(n int) {
	if r == nil {
		return
	}
	r.HistoryEntries.Set(float64(n))
}

// PersistenceFailed counts a failed save.
func (r *Recorder) PersistenceFailed(store string) {
	if r == nil {
		return
	}
	r.PersistenceFailures.WithLabelValues(store).Inc()
}

// Mutated counts a graph mutation.
func (r *Recorder) Mutated(operation string) {
	if r == nil {
		return
	}
	r.Mutations.WithLabelValues(operation).Inc()
}

// HTTPRequest counts an API request.
func (r *Recorder) HTTPRequest(route, code string) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, code).Inc()
}
