package ml

import "github.com/wisbric/meshdrift/pkg/drift"

// PatternType names a recognized shape across a batch of drift events.
type PatternType string

const (
	PatternRollback   PatternType = "rollback"
	PatternDeployment PatternType = "deployment"
	PatternCascade    PatternType = "error_cascade"
	PatternCanary     PatternType = "canary"
	PatternUnknown    PatternType = "unknown"
)

// confidenceThreshold is the minimum confidence a candidate pattern needs to
// be reported instead of falling through to unknown.
const confidenceThreshold = 0.3

// PatternResult is the outcome of recognizing a pattern for one focal event
// within the context of the rest of its batch.
type PatternResult struct {
	Pattern    PatternType
	Confidence float64
	Modifier   int
}

// RecognizePattern classifies focal against the rest of the batch it arrived
// in. Rules are checked in priority order and the first one whose count
// crosses its threshold and whose confidence clears confidenceThreshold wins.
func RecognizePattern(batch []drift.Event, focal drift.Event) PatternResult {
	counts := countByType(batch)

	if focal.EventType == drift.RemovedEdge && counts[drift.RemovedEdge] >= 2 {
		if confidence := minRatio(counts[drift.RemovedEdge], 5); confidence >= confidenceThreshold {
			return PatternResult{Pattern: PatternRollback, Confidence: confidence, Modifier: -40}
		}
	}

	if focal.EventType == drift.NewEdge && counts[drift.NewEdge] >= 3 {
		if confidence := minRatio(counts[drift.NewEdge], 10); confidence >= confidenceThreshold {
			return PatternResult{Pattern: PatternDeployment, Confidence: confidence, Modifier: -30}
		}
	}

	if focal.EventType == drift.ErrorSpike && counts[drift.ErrorSpike] >= 2 {
		if confidence := minRatio(counts[drift.ErrorSpike], 5); confidence >= confidenceThreshold {
			return PatternResult{Pattern: PatternCascade, Confidence: confidence, Modifier: 10}
		}
	}

	if focal.EventType == drift.NewEdge && focal.Details.HasRequestCount {
		if rc := focal.Details.RequestCount; rc > 0 && rc < 10 {
			return PatternResult{Pattern: PatternCanary, Confidence: 0.8, Modifier: -20}
		}
	}

	return PatternResult{Pattern: PatternUnknown, Confidence: 0, Modifier: 0}
}

func countByType(batch []drift.Event) map[drift.EventType]int {
	counts := make(map[drift.EventType]int)
	for _, e := range batch {
		counts[e.EventType]++
	}
	return counts
}

func minRatio(count, ceiling int) float64 {
	ratio := float64(count) / float64(ceiling)
	if ratio > 1 {
		return 1
	}
	return ratio
}
