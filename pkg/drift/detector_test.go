package drift

import (
	"testing"
	"time"

	"github.com/wisbric/meshdrift/pkg/graph"
)

func mustSnapshot(t *testing.T, id string, nodeNames []string, edges []graph.Edge) graph.Snapshot {
	t.Helper()
	nodes := make([]graph.Node, 0, len(nodeNames))
	for _, n := range nodeNames {
		node, err := graph.NewNode(n, "default", graph.InferNodeType(n))
		if err != nil {
			t.Fatalf("NewNode(%s): %v", n, err)
		}
		nodes = append(nodes, node)
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap, err := graph.NewSnapshot(id, start, start.Add(time.Hour), nodes, edges)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func mustEdge(t *testing.T, source, dest string, reqs, errs int64, avgLatency, p99 float64) graph.Edge {
	t.Helper()
	e, err := graph.NewEdge(source, dest, reqs, errs, avgLatency, p99)
	if err != nil {
		t.Fatalf("NewEdge: %v", err)
	}
	return e
}

func TestDiff_SameSnapshotIsEmpty(t *testing.T) {
	edges := []graph.Edge{mustEdge(t, "a", "b", 100, 1, 10, 20)}
	snap := mustSnapshot(t, "s1", []string{"a", "b"}, edges)
	if got := Diff(snap, snap); len(got) != 0 {
		t.Errorf("Diff(s,s) = %v, want empty", got)
	}
}

func TestDiff_NewEdgeToSensitiveDB(t *testing.T) {
	baseline := mustSnapshot(t, "base", []string{"api-gateway", "order-svc"}, []graph.Edge{
		mustEdge(t, "api-gateway", "order-svc", 100, 1, 10, 20),
	})
	current := mustSnapshot(t, "cur", []string{"api-gateway", "order-svc", "payments-db"}, []graph.Edge{
		mustEdge(t, "api-gateway", "order-svc", 100, 1, 10, 20),
		mustEdge(t, "order-svc", "payments-db", 40, 0, 5, 30),
	})

	events := Diff(baseline, current)

	var found *Event
	for i := range events {
		if events[i].EventType == NewEdge && events[i].Source == "order-svc" && events[i].Destination == "payments-db" {
			found = &events[i]
		}
	}
	if found == nil {
		t.Fatalf("expected new_edge order-svc->payments-db, got %+v", events)
	}

	cfg := DefaultRuleConfig()
	triggered := Evaluate(cfg, *found)
	names := make(map[string]bool)
	for _, tr := range triggered {
		names[tr.Rule] = true
	}
	for _, want := range []string{"sensitive_target", "bypass_gateway", "database_direct_access"} {
		if !names[want] {
			t.Errorf("expected rule %q to trigger, got %+v", want, triggered)
		}
	}

	scored := ScoreBase(BaseScores, triggered, *found)
	if scored.Score != 100 {
		t.Errorf("score = %d, want 100 (base 40 + sensitive_target 30 + bypass_gateway 20 + database_direct_access 30, clamped)", scored.Score)
	}
	if scored.Severity != SeverityCritical {
		t.Errorf("severity = %v, want critical", scored.Severity)
	}
}

func TestDiff_ErrorSpikeAboveThreshold(t *testing.T) {
	baseline := mustSnapshot(t, "base", []string{"a", "b"}, []graph.Edge{
		mustEdge(t, "a", "b", 100, 2, 10, 20),
	})
	current := mustSnapshot(t, "cur", []string{"a", "b"}, []graph.Edge{
		mustEdge(t, "a", "b", 100, 12, 10, 20),
	})

	events := Diff(baseline, current)
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d: %+v", len(events), events)
	}
	ev := events[0]
	if ev.EventType != ErrorSpike {
		t.Fatalf("event_type = %v, want error_spike", ev.EventType)
	}
	if abs(ev.Details.CurrentValue-0.12) > 0.001 {
		t.Errorf("current_value = %v, want ~0.12", ev.Details.CurrentValue)
	}
	if ev.Details.ChangeFactor != 6.0 {
		t.Errorf("change_factor = %v, want 6.0", ev.Details.ChangeFactor)
	}

	triggered := Evaluate(DefaultRuleConfig(), ev)
	if len(triggered) != 1 || triggered[0].Rule != "high_error_rate" {
		t.Errorf("expected only high_error_rate to trigger, got %+v", triggered)
	}

	scored := ScoreBase(BaseScores, triggered, ev)
	if scored.Score != 55 {
		t.Errorf("score = %d, want 55", scored.Score)
	}
	if scored.Severity != SeverityMedium {
		t.Errorf("severity = %v, want medium", scored.Severity)
	}
}

func TestDiff_LatencySpikeUnderThresholdDoesNotFire(t *testing.T) {
	baseline := mustSnapshot(t, "base", []string{"a", "b"}, []graph.Edge{
		mustEdge(t, "a", "b", 100, 0, 10, 50),
	})
	current := mustSnapshot(t, "cur", []string{"a", "b"}, []graph.Edge{
		mustEdge(t, "a", "b", 100, 0, 10, 99),
	})

	events := Diff(baseline, current)
	for _, ev := range events {
		if ev.EventType == LatencySpike {
			t.Errorf("latency_spike should not fire under 100ms guard, got %+v", ev)
		}
	}
}

func TestDiff_BlastRadiusIncrease(t *testing.T) {
	baseline := mustSnapshot(t, "base", []string{"order-svc", "a"}, []graph.Edge{
		mustEdge(t, "order-svc", "a", 10, 0, 5, 10),
	})
	current := mustSnapshot(t, "cur", []string{"order-svc", "a", "b", "c"}, []graph.Edge{
		mustEdge(t, "order-svc", "a", 10, 0, 5, 10),
		mustEdge(t, "order-svc", "b", 10, 0, 5, 10),
		mustEdge(t, "order-svc", "c", 10, 0, 5, 10),
	})

	events := Diff(baseline, current)

	var found *Event
	for i := range events {
		if events[i].EventType == BlastRadiusIncrease {
			found = &events[i]
		}
	}
	if found == nil {
		t.Fatalf("expected blast_radius_increase event, got %+v", events)
	}
	if found.Source != "order-svc" || found.Destination != "*" {
		t.Errorf("source/destination = %s/%s, want order-svc/*", found.Source, found.Destination)
	}
	if found.Details.BaselineValue != 1 || found.Details.CurrentValue != 3 {
		t.Errorf("baseline/current = %v/%v, want 1/3", found.Details.BaselineValue, found.Details.CurrentValue)
	}
	if found.Details.ChangeFactor != 2 {
		t.Errorf("change_factor = %v, want 2", found.Details.ChangeFactor)
	}

	triggered := Evaluate(DefaultRuleConfig(), *found)
	if len(triggered) != 1 || triggered[0].Rule != "blast_radius" {
		t.Errorf("expected only blast_radius to trigger, got %+v", triggered)
	}

	scored := ScoreBase(BaseScores, triggered, *found)
	if scored.Score != 50 {
		t.Errorf("score = %d, want 50", scored.Score)
	}
	if scored.Severity != SeverityMedium {
		t.Errorf("severity = %v, want medium", scored.Severity)
	}
}

func TestDiff_RemovedEdge(t *testing.T) {
	baseline := mustSnapshot(t, "base", []string{"a", "b"}, []graph.Edge{
		mustEdge(t, "a", "b", 10, 0, 5, 10),
	})
	current := mustSnapshot(t, "cur", []string{"a"}, nil)

	events := Diff(baseline, current)
	if len(events) != 1 || events[0].EventType != RemovedEdge {
		t.Fatalf("expected single removed_edge, got %+v", events)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
