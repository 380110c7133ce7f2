package ml

import (
	"testing"

	"github.com/wisbric/meshdrift/pkg/drift"
)

func mustDriftEvent(t *testing.T, et drift.EventType, source, dest string, details drift.Details) drift.Event {
	t.Helper()
	e, err := drift.NewEvent(et, source, dest, details)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return e
}

func TestRecognizePattern_Rollback(t *testing.T) {
	batch := []drift.Event{
		mustDriftEvent(t, drift.RemovedEdge, "a", "b", drift.Details{}),
		mustDriftEvent(t, drift.RemovedEdge, "a", "c", drift.Details{}),
	}
	result := RecognizePattern(batch, batch[0])
	if result.Pattern != PatternRollback {
		t.Fatalf("pattern = %v, want rollback", result.Pattern)
	}
	if result.Modifier != -40 {
		t.Errorf("modifier = %d, want -40", result.Modifier)
	}
}

func TestRecognizePattern_Deployment(t *testing.T) {
	batch := []drift.Event{
		mustDriftEvent(t, drift.NewEdge, "a", "b", drift.Details{}),
		mustDriftEvent(t, drift.NewEdge, "a", "c", drift.Details{}),
		mustDriftEvent(t, drift.NewEdge, "a", "d", drift.Details{}),
	}
	result := RecognizePattern(batch, batch[0])
	if result.Pattern != PatternDeployment {
		t.Fatalf("pattern = %v, want deployment", result.Pattern)
	}
	if result.Modifier != -30 {
		t.Errorf("modifier = %d, want -30", result.Modifier)
	}
}

func TestRecognizePattern_ErrorCascade(t *testing.T) {
	batch := []drift.Event{
		mustDriftEvent(t, drift.ErrorSpike, "a", "b", drift.Details{}),
		mustDriftEvent(t, drift.ErrorSpike, "c", "d", drift.Details{}),
	}
	result := RecognizePattern(batch, batch[0])
	if result.Pattern != PatternCascade {
		t.Fatalf("pattern = %v, want error_cascade", result.Pattern)
	}
	if result.Modifier != 10 {
		t.Errorf("modifier = %d, want 10", result.Modifier)
	}
}

func TestRecognizePattern_Canary(t *testing.T) {
	focal := mustDriftEvent(t, drift.NewEdge, "a", "b", drift.Details{RequestCount: 5, HasRequestCount: true})
	result := RecognizePattern([]drift.Event{focal}, focal)
	if result.Pattern != PatternCanary {
		t.Fatalf("pattern = %v, want canary", result.Pattern)
	}
	if result.Modifier != -20 {
		t.Errorf("modifier = %d, want -20", result.Modifier)
	}
}

func TestRecognizePattern_SingleNewEdgeIsUnknown(t *testing.T) {
	focal := mustDriftEvent(t, drift.NewEdge, "a", "b", drift.Details{})
	result := RecognizePattern([]drift.Event{focal}, focal)
	if result.Pattern != PatternUnknown {
		t.Fatalf("pattern = %v, want unknown", result.Pattern)
	}
	if result.Modifier != 0 {
		t.Errorf("modifier = %d, want 0", result.Modifier)
	}
}

func TestRecognizePattern_CanaryRequiresRequestCountUnder10(t *testing.T) {
	focal := mustDriftEvent(t, drift.NewEdge, "a", "b", drift.Details{RequestCount: 500, HasRequestCount: true})
	result := RecognizePattern([]drift.Event{focal}, focal)
	if result.Pattern == PatternCanary {
		t.Fatalf("canary should not match a request_count of 500")
	}
}
