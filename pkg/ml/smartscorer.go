package ml

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/wisbric/meshdrift/pkg/drift"
	"github.com/wisbric/meshdrift/pkg/graph"
)

// ModifierEntry is one named adjustment folded into a smart score, kept
// separate so the UI can render exactly why a score landed where it did.
type ModifierEntry struct {
	Name   string
	Value  int
	Reason string
}

// Breakdown is the full accounting behind a smart score: the base score for
// the event type plus every modifier that fired, in the order applied.
type Breakdown struct {
	Base      int
	Modifiers []ModifierEntry
	Final     int
	Severity  drift.Severity
}

// CalculateSmartScore composes the rule engine (C5/C6), anomaly
// classification (C7), pattern recognition (C8), and feedback/whitelist
// history (C9) into one score. Unlike the rule-boost-only base scorer, the
// smart score folds the anomaly and pattern modifiers and the operator's
// prior verdicts on top of the rule boost. current is the edge's live
// metrics for anomaly comparison; it is nil for a removed_edge event, where
// there is nothing left to classify against the baseline.
func CalculateSmartScore(cfg drift.RuleConfig, e drift.Event, profile *EdgeProfile, current *graph.Edge, batch []drift.Event, whitelisted bool, feedbackVerdict *Verdict) (int, Breakdown) {
	base := drift.BaseScores[e.EventType]
	total := base
	breakdown := Breakdown{Base: base}

	triggered := drift.Evaluate(cfg, e)
	for _, tr := range triggered {
		total += tr.Boost
		breakdown.Modifiers = append(breakdown.Modifiers, ModifierEntry{Name: tr.Rule, Value: tr.Boost, Reason: tr.Reason})
	}

	if current != nil {
		anomalyLabel, anomalyMod := Classify(profile, *current)
		if anomalyMod != 0 || anomalyLabel == AnomalyNormal {
			total += anomalyMod
			breakdown.Modifiers = append(breakdown.Modifiers, ModifierEntry{Name: "anomaly:" + string(anomalyLabel), Value: anomalyMod})
		}
	}

	pattern := RecognizePattern(batch, e)
	if pattern.Pattern != PatternUnknown {
		total += pattern.Modifier
		breakdown.Modifiers = append(breakdown.Modifiers, ModifierEntry{Name: "pattern:" + string(pattern.Pattern), Value: pattern.Modifier})
	}

	historyMod, historyName := historyModifier(whitelisted, feedbackVerdict)
	if historyMod != 0 {
		total += historyMod
		breakdown.Modifiers = append(breakdown.Modifiers, ModifierEntry{Name: historyName, Value: historyMod})
	}

	total = clamp(total, 0, 100)
	breakdown.Final = total
	breakdown.Severity = drift.SeverityFromScore(total)
	return total, breakdown
}

func historyModifier(whitelisted bool, feedbackVerdict *Verdict) (int, string) {
	if whitelisted {
		return whitelistModifier, "whitelisted"
	}
	if feedbackVerdict != nil {
		if mod, ok := feedbackModifiers[*feedbackVerdict]; ok {
			return mod, "feedback:" + string(*feedbackVerdict)
		}
	}
	return 0, ""
}

// ScoredEvent pairs a drift event with its smart score breakdown.
type ScoredEvent struct {
	Event     drift.Event
	Score     int
	Breakdown Breakdown
}

// Dependencies bundles the stores CalculateSmartScore needs to resolve
// anomaly and history modifiers for a live batch.
type Dependencies struct {
	Profiles  *ProfileStore
	Whitelist *WhitelistStore
	Feedback  *FeedbackStore
}

// ScoreBatch scores every event in a diff batch against current (the
// snapshot the events were diffed into), looking up each edge's profile,
// whitelist status, and feedback history, then sorts the result by score
// descending, ties broken by the event type's base score and then
// lexicographically by (source, destination).
func ScoreBatch(ctx context.Context, tenantID uuid.UUID, cfg drift.RuleConfig, batch []drift.Event, current graph.Snapshot, deps Dependencies) ([]ScoredEvent, error) {
	out := make([]ScoredEvent, 0, len(batch))

	for _, e := range batch {
		var profile *EdgeProfile
		if deps.Profiles != nil {
			p, ok, err := deps.Profiles.Get(ctx, tenantID, e.Source, e.Destination)
			if err != nil {
				return nil, err
			}
			if ok {
				profile = &p
			}
		}

		var currentEdge *graph.Edge
		if edge, ok := current.Edges[graph.EdgeKey{Source: e.Source, Destination: e.Destination}]; ok {
			currentEdge = &edge
		}

		var whitelisted bool
		if deps.Whitelist != nil {
			active, err := deps.Whitelist.IsActive(ctx, tenantID, e.Source, e.Destination)
			if err != nil {
				return nil, err
			}
			whitelisted = active
		}

		var verdict *Verdict
		if deps.Feedback != nil && !whitelisted {
			mod, err := deps.Feedback.Modifier(ctx, tenantID, e.Source, e.Destination, string(e.EventType))
			if err != nil {
				return nil, err
			}
			if mod != 0 {
				v := verdictForModifier(mod)
				verdict = &v
			}
		}

		score, breakdown := CalculateSmartScore(cfg, e, profile, currentEdge, batch, whitelisted, verdict)
		out = append(out, ScoredEvent{Event: e, Score: score, Breakdown: breakdown})
	}

	sortScoredEvents(out)
	return out, nil
}

func verdictForModifier(mod int) Verdict {
	for v, m := range feedbackModifiers {
		if m == mod {
			return v
		}
	}
	return VerdictTruePositive
}

func sortScoredEvents(events []ScoredEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		baseA, baseB := drift.BaseScores[a.Event.EventType], drift.BaseScores[b.Event.EventType]
		if baseA != baseB {
			return baseA > baseB
		}
		if a.Event.Source != b.Event.Source {
			return a.Event.Source < b.Event.Source
		}
		return a.Event.Destination < b.Event.Destination
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
