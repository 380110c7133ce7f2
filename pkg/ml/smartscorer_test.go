package ml

import (
	"testing"

	"github.com/wisbric/meshdrift/pkg/drift"
)

func TestCalculateSmartScore_NoModifiersMatchesBaseScore(t *testing.T) {
	e := mustDriftEvent(t, drift.RemovedEdge, "a", "b", drift.Details{})
	score, breakdown := CalculateSmartScore(drift.DefaultRuleConfig(), e, nil, nil, nil, false, nil)
	if score != drift.BaseScores[drift.RemovedEdge] {
		t.Errorf("score = %d, want base %d", score, drift.BaseScores[drift.RemovedEdge])
	}
	if breakdown.Base != drift.BaseScores[drift.RemovedEdge] {
		t.Errorf("breakdown.Base = %d, want %d", breakdown.Base, drift.BaseScores[drift.RemovedEdge])
	}
	if len(breakdown.Modifiers) != 0 {
		t.Errorf("expected no modifiers, got %+v", breakdown.Modifiers)
	}
}

func TestCalculateSmartScore_WhitelistedOverridesFeedback(t *testing.T) {
	e := mustDriftEvent(t, drift.NewEdge, "a", "b", drift.Details{})
	fp := VerdictFalsePositive
	score, breakdown := CalculateSmartScore(drift.DefaultRuleConfig(), e, nil, nil, nil, true, &fp)

	want := drift.BaseScores[drift.NewEdge] + whitelistModifier
	if score != want {
		t.Errorf("score = %d, want %d (whitelist wins over feedback)", score, want)
	}
	found := false
	for _, m := range breakdown.Modifiers {
		if m.Name == "whitelisted" {
			found = true
		}
		if m.Name == "feedback:false_positive" {
			t.Errorf("feedback modifier should not apply when whitelisted")
		}
	}
	if !found {
		t.Errorf("expected a whitelisted modifier entry, got %+v", breakdown.Modifiers)
	}
}

func TestCalculateSmartScore_FeedbackModifierApplies(t *testing.T) {
	e := mustDriftEvent(t, drift.NewEdge, "a", "b", drift.Details{})
	fp := VerdictFalsePositive
	score, _ := CalculateSmartScore(drift.DefaultRuleConfig(), e, nil, nil, nil, false, &fp)

	want := drift.BaseScores[drift.NewEdge] + feedbackModifiers[VerdictFalsePositive]
	if score != want {
		t.Errorf("score = %d, want %d", score, want)
	}
}

func TestCalculateSmartScore_ClampsToZeroAndHundred(t *testing.T) {
	e := mustDriftEvent(t, drift.NewEdge, "a", "payments-db", drift.Details{})
	fp := VerdictFalsePositive
	score, _ := CalculateSmartScore(drift.DefaultRuleConfig(), e, nil, nil, nil, true, &fp)
	if score < 0 || score > 100 {
		t.Errorf("score = %d, want within [0,100]", score)
	}
}

func TestCalculateSmartScore_RuleBoostIncluded(t *testing.T) {
	e := mustDriftEvent(t, drift.NewEdge, "order-svc", "payments-db", drift.Details{})
	score, breakdown := CalculateSmartScore(drift.DefaultRuleConfig(), e, nil, nil, nil, false, nil)

	if score != 100 {
		t.Errorf("score = %d, want 100 (base 40 + sensitive_target 30 + bypass_gateway 20 + database_direct_access 30, clamped)", score)
	}
	if len(breakdown.Modifiers) < 3 {
		t.Errorf("expected rule boosts in breakdown, got %+v", breakdown.Modifiers)
	}
}

func TestSortScoredEvents_OrdersByScoreThenBaseThenName(t *testing.T) {
	events := []ScoredEvent{
		{Event: drift.Event{EventType: drift.RemovedEdge, Source: "z", Destination: "y"}, Score: 50},
		{Event: drift.Event{EventType: drift.NewEdge, Source: "a", Destination: "b"}, Score: 70},
		{Event: drift.Event{EventType: drift.TrafficSpike, Source: "a", Destination: "a"}, Score: 70},
	}
	sortScoredEvents(events)
	if events[0].Score != 70 || events[1].Score != 70 {
		t.Fatalf("expected the two 70-scores first, got %+v", events)
	}
	if events[2].Score != 50 {
		t.Errorf("expected the 50-score last, got %+v", events[2])
	}
}
