package ml

import (
	"testing"
	"time"

	"github.com/wisbric/meshdrift/pkg/graph"
)

func edge(t *testing.T, source, dest string, reqs, errs int64, avg, p99 float64) graph.Edge {
	t.Helper()
	e, err := graph.NewEdge(source, dest, reqs, errs, avg, p99)
	if err != nil {
		t.Fatalf("NewEdge: %v", err)
	}
	return e
}

func snapshotWithEdge(t *testing.T, id string, e graph.Edge, start time.Time) graph.Snapshot {
	t.Helper()
	src, err := graph.NewNode(e.Source, "default", graph.NodeService)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	dst, err := graph.NewNode(e.Destination, "default", graph.InferNodeType(e.Destination))
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	snap, err := graph.NewSnapshot(id, start, start.Add(time.Hour), []graph.Node{src, dst}, []graph.Edge{e})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func TestBuildBaseline_InsufficientSamples(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snaps := []graph.Snapshot{
		snapshotWithEdge(t, "s1", edge(t, "a", "b", 100, 1, 10, 20), start),
		snapshotWithEdge(t, "s2", edge(t, "a", "b", 100, 1, 10, 20), start.Add(time.Hour)),
	}
	_, ok := BuildBaseline(snaps, graph.EdgeKey{Source: "a", Destination: "b"}, DefaultWindowSize, start.Add(2*time.Hour))
	if ok {
		t.Fatal("expected insufficient samples with only 2 observations")
	}
}

func TestBuildBaseline_ComputesMeanAndStd(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var snaps []graph.Snapshot
	for i, reqs := range []int64{100, 100, 100, 100} {
		snaps = append(snaps, snapshotWithEdge(t, "s", edge(t, "a", "b", reqs, 0, 10, 20), start.Add(time.Duration(i)*time.Hour)))
	}
	profile, ok := BuildBaseline(snaps, graph.EdgeKey{Source: "a", Destination: "b"}, DefaultWindowSize, start.Add(5*time.Hour))
	if !ok {
		t.Fatal("expected sufficient samples")
	}
	if profile.MeanRequestCount != 100 {
		t.Errorf("mean_request_count = %v, want 100", profile.MeanRequestCount)
	}
	if profile.StdRequestCount != 0 {
		t.Errorf("std_request_count = %v, want 0 (constant series)", profile.StdRequestCount)
	}
	if profile.SampleCount != 4 {
		t.Errorf("sample_count = %d, want 4", profile.SampleCount)
	}
}

func TestUpdateBaseline_InitializesFromNil(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	profile := UpdateBaseline(nil, edge(t, "a", "b", 100, 5, 10, 20), DefaultWindowSize, now)
	if profile.SampleCount != 1 {
		t.Errorf("sample_count = %d, want 1", profile.SampleCount)
	}
	if profile.MeanRequestCount != 100 {
		t.Errorf("mean_request_count = %v, want 100", profile.MeanRequestCount)
	}
	if profile.StdRequestCount != 0 {
		t.Errorf("std_request_count = %v, want 0", profile.StdRequestCount)
	}
}

func TestUpdateBaseline_CapsSampleCountAtWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	profile := EdgeProfile{Source: "a", Destination: "b", SampleCount: DefaultWindowSize, MeanRequestCount: 100}
	updated := UpdateBaseline(&profile, edge(t, "a", "b", 100, 0, 10, 20), DefaultWindowSize, now)
	if updated.SampleCount != DefaultWindowSize {
		t.Errorf("sample_count = %d, want capped at %d", updated.SampleCount, DefaultWindowSize)
	}
}

func TestUpdateBaseline_MeanMovesTowardNewObservation(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	profile := EdgeProfile{Source: "a", Destination: "b", SampleCount: 10, MeanRequestCount: 100}
	updated := UpdateBaseline(&profile, edge(t, "a", "b", 200, 0, 10, 20), DefaultWindowSize, now)
	if updated.MeanRequestCount <= 100 || updated.MeanRequestCount >= 200 {
		t.Errorf("mean_request_count = %v, want strictly between 100 and 200", updated.MeanRequestCount)
	}
}
