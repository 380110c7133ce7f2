package drift

import "testing"

func TestSeverityFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  Severity
	}{
		{0, SeverityLow},
		{39, SeverityLow},
		{40, SeverityMedium},
		{59, SeverityMedium},
		{60, SeverityHigh},
		{79, SeverityHigh},
		{80, SeverityCritical},
		{100, SeverityCritical},
	}
	for _, tt := range tests {
		if got := SeverityFromScore(tt.score); got != tt.want {
			t.Errorf("SeverityFromScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestNewEvent_RejectsUnknownType(t *testing.T) {
	_, err := NewEvent("bogus", "a", "b", Details{})
	if err == nil {
		t.Fatal("expected error for unknown event_type")
	}
}

func TestNewEvent_RejectsEmptySource(t *testing.T) {
	_, err := NewEvent(NewEdge, "", "b", Details{})
	if err == nil {
		t.Fatal("expected error for empty source")
	}
}
