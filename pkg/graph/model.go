// Package graph holds the immutable value types that describe a service
// mesh topology at a point in time: nodes, directed edges between them, and
// the snapshot that aggregates both over a time window.
package graph

import (
	"fmt"
	"strings"

	"github.com/wisbric/meshdrift/internal/apperr"
)

// NodeType classifies a mesh participant.
type NodeType string

const (
	NodeService  NodeType = "service"
	NodeDatabase NodeType = "database"
	NodeGateway  NodeType = "gateway"
)

// Node is an immutable mesh participant. Equality is by all three fields.
type Node struct {
	Name      string
	Namespace string
	NodeType  NodeType
}

// NewNode validates and constructs a Node. Namespace defaults to "default".
func NewNode(name, namespace string, nodeType NodeType) (Node, error) {
	if name == "" {
		return Node{}, apperr.New(apperr.InvalidArgument, "node name must not be empty")
	}
	if namespace == "" {
		namespace = "default"
	}
	switch nodeType {
	case NodeService, NodeDatabase, NodeGateway:
	default:
		return Node{}, apperr.New(apperr.InvalidArgument, fmt.Sprintf("unknown node type %q", nodeType))
	}
	return Node{Name: name, Namespace: namespace, NodeType: nodeType}, nil
}

// InferNodeType guesses a node's type from its name. Substring "-db" implies
// database, substring "gateway" implies gateway, otherwise service. This is
// a hint only — callers may override via metadata.
func InferNodeType(name string) NodeType {
	switch {
	case strings.Contains(name, "-db"):
		return NodeDatabase
	case strings.Contains(name, "gateway"):
		return NodeGateway
	default:
		return NodeService
	}
}

// Edge is an immutable directed edge with aggregated request metrics over a window.
type Edge struct {
	Source        string
	Destination   string
	RequestCount  int64
	ErrorCount    int64
	AvgLatencyMs  float64
	P99LatencyMs  float64
}

// NewEdge validates and constructs an Edge.
func NewEdge(source, destination string, requestCount, errorCount int64, avgLatencyMs, p99LatencyMs float64) (Edge, error) {
	if source == "" || destination == "" {
		return Edge{}, apperr.New(apperr.InvalidArgument, "edge source and destination must not be empty")
	}
	if requestCount < 0 {
		return Edge{}, apperr.New(apperr.InvalidArgument, "edge request_count must be >= 0")
	}
	if errorCount < 0 || errorCount > requestCount {
		return Edge{}, apperr.New(apperr.InvalidArgument, "edge error_count must be in [0, request_count]")
	}
	if avgLatencyMs < 0 || p99LatencyMs < 0 {
		return Edge{}, apperr.New(apperr.InvalidArgument, "edge latency fields must be >= 0")
	}
	return Edge{
		Source:       source,
		Destination:  destination,
		RequestCount: requestCount,
		ErrorCount:   errorCount,
		AvgLatencyMs: avgLatencyMs,
		P99LatencyMs: p99LatencyMs,
	}, nil
}

// Key returns the edge's unique key within a snapshot.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Destination: e.Destination}
}

// ErrorRate is error_count / request_count, or 0 when request_count is 0.
func (e Edge) ErrorRate() float64 {
	if e.RequestCount == 0 {
		return 0
	}
	return float64(e.ErrorCount) / float64(e.RequestCount)
}

// EdgeKey identifies an edge within a snapshot or a baseline profile.
type EdgeKey struct {
	Source      string
	Destination string
}

func (k EdgeKey) String() string {
	return k.Source + "->" + k.Destination
}

// Less orders keys lexicographically by (source, destination), the
// deterministic iteration order the drift detector relies on.
func (k EdgeKey) Less(other EdgeKey) bool {
	if k.Source != other.Source {
		return k.Source < other.Source
	}
	return k.Destination < other.Destination
}
