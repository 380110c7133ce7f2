package drift

import (
	"fmt"
	"strings"
)

// Card is the human-readable rendering of a Scored event, produced for the
// dashboard/report adapters and the DriftEvent wire form.
type Card struct {
	EventType      EventType
	Title          string
	WhatChanged    string
	WhyRisk        []string
	Affected       []string
	Recommendation string
	RiskScore      int
	Severity       Severity
	Source         string
	Destination    string
}

// Explain renders a Card from a scored event and the rules that fired for
// it. why_risk concatenates triggered-rule reasons in order; when none
// fired it falls back to a generic manual-review reason, per spec §4.10.
func Explain(s Scored, triggered []Triggered) Card {
	e := s.Event

	why := make([]string, 0, len(triggered))
	for _, t := range triggered {
		why = append(why, t.Reason)
	}
	if len(why) == 0 {
		why = []string{"Change recorded; manual review required"}
	}

	affected := []string{e.Source}
	if e.Destination != "*" {
		affected = append(affected, e.Destination)
	}

	return Card{
		EventType:      e.EventType,
		Title:          title(e),
		WhatChanged:    whatChanged(e),
		WhyRisk:        why,
		Affected:       dedupPreserveOrder(affected),
		Recommendation: recommendation(e),
		RiskScore:      s.Score,
		Severity:       s.Severity,
		Source:         e.Source,
		Destination:    e.Destination,
	}
}

func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func title(e Event) string {
	switch e.EventType {
	case NewEdge:
		return fmt.Sprintf("New connection: %s -> %s", e.Source, e.Destination)
	case RemovedEdge:
		return fmt.Sprintf("Connection disappeared: %s -> %s", e.Source, e.Destination)
	case ErrorSpike:
		return fmt.Sprintf("Error spike: %s -> %s", e.Source, e.Destination)
	case LatencySpike:
		return fmt.Sprintf("Latency increase: %s -> %s", e.Source, e.Destination)
	case TrafficSpike:
		return fmt.Sprintf("Traffic spike: %s -> %s", e.Source, e.Destination)
	case BlastRadiusIncrease:
		return fmt.Sprintf("Attack surface growth: %s", e.Source)
	default:
		return fmt.Sprintf("Drift: %s -> %s", e.Source, e.Destination)
	}
}

func whatChanged(e Event) string {
	d := e.Details
	switch e.EventType {
	case NewEdge:
		return fmt.Sprintf("A new connection %s -> %s appeared that was not present in the prior window", e.Source, e.Destination)
	case RemovedEdge:
		return fmt.Sprintf("Connection %s -> %s disappeared from the current window", e.Source, e.Destination)
	case ErrorSpike:
		return fmt.Sprintf("Error rate rose from %.2f%% to %.2f%% (%gx)", d.BaselineValue*100, d.CurrentValue*100, d.ChangeFactor)
	case LatencySpike:
		return fmt.Sprintf("p99 latency rose from %.0fms to %.0fms (%gx)", d.BaselineValue, d.CurrentValue, d.ChangeFactor)
	case TrafficSpike:
		return fmt.Sprintf("Traffic rose from %.0f to %.0f requests (%gx)", d.BaselineValue, d.CurrentValue, d.ChangeFactor)
	case BlastRadiusIncrease:
		return fmt.Sprintf("Outgoing connection count from %s rose from %.0f to %.0f", e.Source, d.BaselineValue, d.CurrentValue)
	default:
		return "Change recorded"
	}
}

func recommendation(e Event) string {
	switch e.EventType {
	case NewEdge:
		if strings.Contains(e.Destination, "-db") {
			return fmt.Sprintf("Review whether direct access is required. Consider a NetworkPolicy to block %s -> %s", e.Source, e.Destination)
		}
		return "Confirm whether this connection is expected; if not, restrict it via NetworkPolicy"
	case ErrorSpike:
		return fmt.Sprintf("Inspect logs of %s; consider rate-limiting %s", e.Destination, e.Source)
	case LatencySpike:
		return fmt.Sprintf("Check load on %s; consider rate-limiting %s", e.Destination, e.Source)
	case RemovedEdge:
		return "Confirm whether this disappearance is expected; it may indicate an outage or routing change"
	case TrafficSpike:
		return fmt.Sprintf("Investigate the source of the traffic growth %s -> %s; consider rate-limiting %s", e.Source, e.Destination, e.Source)
	case BlastRadiusIncrease:
		return fmt.Sprintf("Audit %s's new outgoing connections; restrict the allowed destinations", e.Source)
	default:
		return "Manual review required"
	}
}
