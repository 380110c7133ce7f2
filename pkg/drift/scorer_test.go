package drift

import "testing"

func TestScoreBase_ClampsAtCeiling(t *testing.T) {
	e, err := NewEvent(NewEdge, "a", "payments-db", Details{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	triggered := []Triggered{{Rule: "sensitive_target", Boost: 30}, {Rule: "database_direct_access", Boost: 30}, {Rule: "bypass_gateway", Boost: 20}}
	scored := ScoreBase(BaseScores, triggered, e) // 40 + 30 + 30 + 20 = 120 -> clamp 100
	if scored.Score != 100 {
		t.Errorf("score = %d, want 100 (clamped)", scored.Score)
	}
	if scored.Severity != SeverityCritical {
		t.Errorf("severity = %v, want critical", scored.Severity)
	}
}

func TestScoreBase_UnknownEventTypeUsesDefault(t *testing.T) {
	scores := map[EventType]int{}
	e := Event{EventType: "something_else", Source: "a", Destination: "b"}
	scored := ScoreBase(scores, nil, e)
	if scored.Score != defaultBaseScore {
		t.Errorf("score = %d, want default %d", scored.Score, defaultBaseScore)
	}
}

func TestScoreBase_NeverNegative(t *testing.T) {
	scores := map[EventType]int{NewEdge: 40}
	triggered := []Triggered{{Rule: "x", Boost: -100}}
	scored := ScoreBase(scores, triggered, Event{EventType: NewEdge, Source: "a", Destination: "b"})
	if scored.Score != 0 {
		t.Errorf("score = %d, want 0 (clamped)", scored.Score)
	}
	if scored.Severity != SeverityLow {
		t.Errorf("severity = %v, want low", scored.Severity)
	}
}
