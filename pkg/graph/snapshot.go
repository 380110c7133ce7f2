package graph

import (
	"sort"
	"time"

	"github.com/wisbric/meshdrift/internal/apperr"
)

// Snapshot is an immutable-once-saved aggregate of nodes and edges observed
// over a half-open time window [TimestampStart, TimestampEnd).
type Snapshot struct {
	SnapshotID      string
	TimestampStart  time.Time
	TimestampEnd    time.Time
	Nodes           map[string]Node // keyed by node name
	Edges           map[EdgeKey]Edge
}

// NewSnapshot validates and constructs a Snapshot. Every edge endpoint must
// appear in Nodes.
func NewSnapshot(snapshotID string, start, end time.Time, nodes []Node, edges []Edge) (Snapshot, error) {
	if snapshotID == "" {
		return Snapshot{}, apperr.New(apperr.InvalidArgument, "snapshot_id must not be empty")
	}
	if end.Before(start) {
		return Snapshot{}, apperr.New(apperr.InvalidArgument, "timestamp_end must be >= timestamp_start")
	}

	nodeSet := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		nodeSet[n.Name] = n
	}

	edgeSet := make(map[EdgeKey]Edge, len(edges))
	for _, e := range edges {
		key := e.Key()
		if _, ok := edgeSet[key]; ok {
			return Snapshot{}, apperr.New(apperr.InvalidArgument, "duplicate edge key "+key.String())
		}
		edgeSet[key] = e
		if _, ok := nodeSet[e.Source]; !ok {
			return Snapshot{}, apperr.New(apperr.InvalidArgument, "edge source "+e.Source+" missing from nodes")
		}
		if _, ok := nodeSet[e.Destination]; !ok {
			return Snapshot{}, apperr.New(apperr.InvalidArgument, "edge destination "+e.Destination+" missing from nodes")
		}
	}

	return Snapshot{
		SnapshotID:     snapshotID,
		TimestampStart: start,
		TimestampEnd:   end,
		Nodes:          nodeSet,
		Edges:          edgeSet,
	}, nil
}

// SortedEdgeKeys returns the snapshot's edge keys in the deterministic order
// (source, destination) the drift detector relies on.
func (s Snapshot) SortedEdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(s.Edges))
	for k := range s.Edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// OutgoingCount returns the number of outgoing edges from the given source node.
func (s Snapshot) OutgoingCount(source string) int {
	n := 0
	for k := range s.Edges {
		if k.Source == source {
			n++
		}
	}
	return n
}
