// Package drift diffs two mesh snapshots into security-relevant drift
// events and scores them: rule matching, base scoring, and the explain
// card renderer. It never performs I/O.
package drift

import "github.com/wisbric/meshdrift/internal/apperr"

// EventType is the closed set of drift events the detector can emit.
type EventType string

const (
	NewEdge             EventType = "new_edge"
	RemovedEdge         EventType = "removed_edge"
	ErrorSpike          EventType = "error_spike"
	LatencySpike        EventType = "latency_spike"
	TrafficSpike        EventType = "traffic_spike"
	BlastRadiusIncrease EventType = "blast_radius_increase"
)

// Severity is the closed label derived from a final score.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFromScore labels a score in [0,100] per the band function
// shared by C6 and C10: >=80 critical, >=60 high, >=40 medium, else low.
func SeverityFromScore(score int) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Details carries event-type-specific numeric context. Fields are
// populated selectively depending on event_type; zero values mean absent.
type Details struct {
	BaselineValue float64
	CurrentValue  float64
	ChangeFactor  float64
	// RequestCount is set only on new_edge events, consulted by the C8
	// canary pattern (present and in (0,10)).
	RequestCount    int64
	HasRequestCount bool
}

// Event is an immutable drift event produced by the detector. Severity is
// zero-valued until a scorer assigns it.
type Event struct {
	EventType   EventType
	Source      string
	Destination string
	Severity    Severity
	Details     Details
}

// NewEvent validates and constructs an Event with no severity assigned yet.
func NewEvent(eventType EventType, source, destination string, details Details) (Event, error) {
	switch eventType {
	case NewEdge, RemovedEdge, ErrorSpike, LatencySpike, TrafficSpike, BlastRadiusIncrease:
	default:
		return Event{}, apperr.New(apperr.InvalidArgument, "unknown drift event_type")
	}
	if source == "" {
		return Event{}, apperr.New(apperr.InvalidArgument, "drift event source must not be empty")
	}
	if destination == "" {
		return Event{}, apperr.New(apperr.InvalidArgument, "drift event destination must not be empty")
	}
	return Event{EventType: eventType, Source: source, Destination: destination, Details: details}, nil
}

// WithSeverity returns a copy of the event with severity set.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}
