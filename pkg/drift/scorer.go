package drift

// BaseScores are the default per-event-type weights from spec §4.5.
// A tenant may override via config.Config.BaseScores; ScoreBase falls back
// to 10 for any event_type absent from the table.
var BaseScores = map[EventType]int{
	NewEdge:             40,
	RemovedEdge:         20,
	ErrorSpike:          35,
	LatencySpike:        25,
	TrafficSpike:        30,
	BlastRadiusIncrease: 35,
}

const defaultBaseScore = 10

// Scored is the immutable result of the base scorer: the original event
// (severity unset), its score, and the severity label for that score.
type Scored struct {
	Event    Event
	Score    int
	Severity Severity
}

// ScoreBase computes score_base(event) = clamp(base[event_type] + sum of
// triggered rule boosts, 0, 100) and labels severity, without mutating e.
func ScoreBase(scores map[EventType]int, triggered []Triggered, e Event) Scored {
	base, ok := scores[e.EventType]
	if !ok {
		base = defaultBaseScore
	}

	total := base
	for _, t := range triggered {
		total += t.Boost
	}
	total = clamp(total, 0, 100)

	severity := SeverityFromScore(total)
	return Scored{Event: e.WithSeverity(severity), Score: total, Severity: severity}
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
