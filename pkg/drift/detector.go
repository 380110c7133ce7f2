package drift

import (
	"sort"

	"github.com/wisbric/meshdrift/pkg/graph"
)

// Diff compares baseline and current snapshots and returns the drift events
// between them, in a deterministic order: new edges, then removed edges,
// then per-edge spikes over the intersection (each lexicographically sorted
// by (source, destination)), then blast-radius increases sorted by source.
// The result carries no severity yet; that is the scorer's job.
func Diff(baseline, current graph.Snapshot) []Event {
	var events []Event

	for _, k := range current.SortedEdgeKeys() {
		if _, ok := baseline.Edges[k]; !ok {
			ev, err := NewEvent(NewEdge, k.Source, k.Destination, Details{
				RequestCount:    current.Edges[k].RequestCount,
				HasRequestCount: true,
			})
			if err == nil {
				events = append(events, ev)
			}
		}
	}

	for _, k := range baseline.SortedEdgeKeys() {
		if _, ok := current.Edges[k]; !ok {
			ev, err := NewEvent(RemovedEdge, k.Source, k.Destination, Details{})
			if err == nil {
				events = append(events, ev)
			}
		}
	}

	for _, k := range baseline.SortedEdgeKeys() {
		c, ok := current.Edges[k]
		if !ok {
			continue
		}
		b := baseline.Edges[k]

		if b.ErrorRate() > 0 && c.ErrorRate() > 0.05 && c.ErrorRate()/b.ErrorRate() > 2 {
			ev, err := NewEvent(ErrorSpike, k.Source, k.Destination, Details{
				BaselineValue: round2(b.ErrorRate()),
				CurrentValue:  round2(c.ErrorRate()),
				ChangeFactor:  round2(c.ErrorRate() / b.ErrorRate()),
			})
			if err == nil {
				events = append(events, ev)
			}
		}

		if b.P99LatencyMs > 0 && c.P99LatencyMs > 100 && c.P99LatencyMs/b.P99LatencyMs > 2 {
			ev, err := NewEvent(LatencySpike, k.Source, k.Destination, Details{
				BaselineValue: round2(b.P99LatencyMs),
				CurrentValue:  round2(c.P99LatencyMs),
				ChangeFactor:  round2(c.P99LatencyMs / b.P99LatencyMs),
			})
			if err == nil {
				events = append(events, ev)
			}
		}

		if b.RequestCount > 0 && float64(c.RequestCount)/float64(b.RequestCount) > 3 {
			ev, err := NewEvent(TrafficSpike, k.Source, k.Destination, Details{
				BaselineValue: float64(b.RequestCount),
				CurrentValue:  float64(c.RequestCount),
				ChangeFactor:  round2(float64(c.RequestCount) / float64(b.RequestCount)),
			})
			if err == nil {
				events = append(events, ev)
			}
		}
	}

	sources := make(map[string]struct{})
	for k := range baseline.Edges {
		sources[k.Source] = struct{}{}
	}
	for k := range current.Edges {
		sources[k.Source] = struct{}{}
	}
	sorted := make([]string, 0, len(sources))
	for s := range sources {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	for _, s := range sorted {
		outB := baseline.OutgoingCount(s)
		outC := current.OutgoingCount(s)
		if outC-outB >= 2 {
			ev, err := NewEvent(BlastRadiusIncrease, s, "*", Details{
				BaselineValue: float64(outB),
				CurrentValue:  float64(outC),
				ChangeFactor:  float64(outC - outB),
			})
			if err == nil {
				events = append(events, ev)
			}
		}
	}

	return events
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
