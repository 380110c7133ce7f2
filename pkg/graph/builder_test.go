package graph

import (
	"testing"
	"time"
)

func TestBuildSnapshot_EmptyInputYieldsEmptySnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	snap, err := BuildSnapshot("snap-1", nil, start, end)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if len(snap.Nodes) != 0 || len(snap.Edges) != 0 {
		t.Errorf("expected empty snapshot, got %d nodes, %d edges", len(snap.Nodes), len(snap.Edges))
	}
}

func TestBuildSnapshot_DropsRecordsOutsideWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	records := []Record{
		{Timestamp: start.Add(-time.Minute), Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 10},
		{Timestamp: end, Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 10}, // half-open: excluded
		{Timestamp: start.Add(time.Minute), Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 10},
	}

	snap, err := BuildSnapshot("snap-1", records, start, end)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	edge, ok := snap.Edges[EdgeKey{Source: "a", Destination: "b"}]
	if !ok {
		t.Fatal("expected edge a->b")
	}
	if edge.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", edge.RequestCount)
	}
}

func TestBuildSnapshot_ErrorCountOnlyCounts5xx(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	records := []Record{
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 10},
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 404, LatencyMs: 10},
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 500, LatencyMs: 10},
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 503, LatencyMs: 10},
	}

	snap, err := BuildSnapshot("snap-1", records, start, end)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	edge := snap.Edges[EdgeKey{Source: "a", Destination: "b"}]
	if edge.RequestCount != 4 {
		t.Errorf("RequestCount = %d, want 4", edge.RequestCount)
	}
	if edge.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2 (4xx must not count)", edge.ErrorCount)
	}
}

func TestBuildSnapshot_NodeTypeInference(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	records := []Record{
		{Timestamp: start, Source: "api-gateway", Destination: "order-svc", StatusCode: 200, LatencyMs: 10},
		{Timestamp: start, Source: "order-svc", Destination: "orders-db", StatusCode: 200, LatencyMs: 10},
	}

	snap, err := BuildSnapshot("snap-1", records, start, end)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	if snap.Nodes["api-gateway"].NodeType != NodeGateway {
		t.Errorf("api-gateway node_type = %q, want gateway", snap.Nodes["api-gateway"].NodeType)
	}
	if snap.Nodes["orders-db"].NodeType != NodeDatabase {
		t.Errorf("orders-db node_type = %q, want database", snap.Nodes["orders-db"].NodeType)
	}
	if snap.Nodes["order-svc"].NodeType != NodeService {
		t.Errorf("order-svc node_type = %q, want service", snap.Nodes["order-svc"].NodeType)
	}
}

func TestP99_NearestRank(t *testing.T) {
	// N=100, idx = ceil(0.99*100)-1 = 98 (0-indexed), the 99th smallest value.
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(i + 1) // 1..100
	}
	got := p99(xs)
	if got != 99 {
		t.Errorf("p99(1..100) = %v, want 99", got)
	}
}

func TestP99_SmallSample(t *testing.T) {
	xs := []float64{10, 20, 30}
	// N=3, idx = ceil(0.99*3)-1 = ceil(2.97)-1 = 3-1 = 2 -> last element
	got := p99(xs)
	if got != 30 {
		t.Errorf("p99([10,20,30]) = %v, want 30", got)
	}
}

func TestAvgLatencyRoundedTo2Decimals(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	records := []Record{
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 10},
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 11},
		{Timestamp: start, Source: "a", Destination: "b", StatusCode: 200, LatencyMs: 10},
	}
	snap, err := BuildSnapshot("snap-1", records, start, end)
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	edge := snap.Edges[EdgeKey{Source: "a", Destination: "b"}]
	if edge.AvgLatencyMs != 10.33 {
		t.Errorf("AvgLatencyMs = %v, want 10.33", edge.AvgLatencyMs)
	}
}
