package drift

import (
	"reflect"
	"strings"
	"testing"
)

func TestExplain_FallsBackWhenNoRulesTriggered(t *testing.T) {
	e, err := NewEvent(RemovedEdge, "a", "b", Details{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	scored := ScoreBase(BaseScores, nil, e)
	card := Explain(scored, nil)

	want := []string{"Change recorded; manual review required"}
	if !reflect.DeepEqual(card.WhyRisk, want) {
		t.Errorf("WhyRisk = %v, want %v", card.WhyRisk, want)
	}
}

func TestExplain_WhyRiskConcatenatesReasonsInOrder(t *testing.T) {
	e, err := NewEvent(NewEdge, "order-svc", "payments-db", Details{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	triggered := Evaluate(DefaultRuleConfig(), e)
	scored := ScoreBase(BaseScores, triggered, e)
	card := Explain(scored, triggered)

	if len(card.WhyRisk) != len(triggered) {
		t.Fatalf("WhyRisk length = %d, want %d", len(card.WhyRisk), len(triggered))
	}
	for i, tr := range triggered {
		if card.WhyRisk[i] != tr.Reason {
			t.Errorf("WhyRisk[%d] = %q, want %q", i, card.WhyRisk[i], tr.Reason)
		}
	}
}

func TestExplain_AffectedExcludesWildcardDestination(t *testing.T) {
	e, err := NewEvent(BlastRadiusIncrease, "order-svc", "*", Details{BaselineValue: 1, CurrentValue: 3})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	scored := ScoreBase(BaseScores, nil, e)
	card := Explain(scored, nil)

	want := []string{"order-svc"}
	if !reflect.DeepEqual(card.Affected, want) {
		t.Errorf("Affected = %v, want %v", card.Affected, want)
	}
}

func TestExplain_AffectedIsDeduplicated(t *testing.T) {
	e, err := NewEvent(NewEdge, "a", "a", Details{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	scored := ScoreBase(BaseScores, nil, e)
	card := Explain(scored, nil)

	want := []string{"a"}
	if !reflect.DeepEqual(card.Affected, want) {
		t.Errorf("Affected = %v, want %v", card.Affected, want)
	}
}

func TestExplain_NewEdgeToDBRecommendsNetworkPolicy(t *testing.T) {
	e, err := NewEvent(NewEdge, "order-svc", "payments-db", Details{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	scored := ScoreBase(BaseScores, nil, e)
	card := Explain(scored, nil)

	if !strings.Contains(card.Recommendation, "NetworkPolicy") {
		t.Errorf("recommendation = %q, want mention of NetworkPolicy", card.Recommendation)
	}
}
