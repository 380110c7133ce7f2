package graph

import (
	"math"
	"sort"
	"time"
)

// Record is a single observed request between two mesh participants.
type Record struct {
	Timestamp   time.Time
	Source      string
	Destination string
	StatusCode  int
	LatencyMs   float64
}

// BuildSnapshot aggregates a sequence of request records into a Snapshot
// covering the half-open window [start, end). Records outside the window are
// dropped. Empty input yields an empty snapshot, not an error.
func BuildSnapshot(snapshotID string, records []Record, start, end time.Time) (Snapshot, error) {
	type group struct {
		requestCount int64
		errorCount   int64
		latencies    []float64
	}
	groups := make(map[EdgeKey]*group)
	nodeNames := make(map[string]struct{})

	for _, r := range records {
		if r.Timestamp.Before(start) || !r.Timestamp.Before(end) {
			continue
		}
		key := EdgeKey{Source: r.Source, Destination: r.Destination}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
		}
		g.requestCount++
		if r.StatusCode >= 500 {
			g.errorCount++
		}
		g.latencies = append(g.latencies, r.LatencyMs)
		nodeNames[r.Source] = struct{}{}
		nodeNames[r.Destination] = struct{}{}
	}

	nodes := make([]Node, 0, len(nodeNames))
	for name := range nodeNames {
		nodes = append(nodes, Node{Name: name, Namespace: "default", NodeType: InferNodeType(name)})
	}

	edges := make([]Edge, 0, len(groups))
	for key, g := range groups {
		edges = append(edges, Edge{
			Source:       key.Source,
			Destination:  key.Destination,
			RequestCount: g.requestCount,
			ErrorCount:   g.errorCount,
			AvgLatencyMs: round2(mean(g.latencies)),
			P99LatencyMs: round2(p99(g.latencies)),
		})
	}

	return NewSnapshot(snapshotID, start, end, nodes, edges)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// p99 computes the nearest-rank 99th percentile on the sorted input:
// idx = clamp(ceil(0.99*N) - 1, 0, N-1).
func p99(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	idx := int(math.Ceil(0.99*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
