package ml

import "github.com/wisbric/meshdrift/pkg/graph"

// AnomalyLabel classifies an edge observation against its baseline profile.
type AnomalyLabel string

const (
	AnomalyNoBaseline   AnomalyLabel = "no_baseline"
	AnomalyInsufficient AnomalyLabel = "insufficient_data"
	AnomalyAnomaly      AnomalyLabel = "anomaly"
	AnomalySuspicious   AnomalyLabel = "suspicious"
	AnomalyNormal       AnomalyLabel = "normal"
)

// ZScores holds the per-metric deviation of an observation from its baseline.
type ZScores struct {
	RequestCount float64
	ErrorRate    float64
	P99LatencyMs float64
}

// CalculateZScores computes z = (current-mean)/std per metric, 0 when std is 0.
func CalculateZScores(profile EdgeProfile, e graph.Edge) ZScores {
	return ZScores{
		RequestCount: zscore(float64(e.RequestCount), profile.MeanRequestCount, profile.StdRequestCount),
		ErrorRate:    zscore(e.ErrorRate(), profile.MeanErrorRate, profile.StdErrorRate),
		P99LatencyMs: zscore(e.P99LatencyMs, profile.MeanP99LatencyMs, profile.StdP99LatencyMs),
	}
}

func zscore(current, mean, std float64) float64 {
	if std <= 0 {
		return 0
	}
	return (current - mean) / std
}

// CalculateAnomalyScore weights error-rate deviation highest, then latency,
// then raw traffic deviation (which can go either direction).
func CalculateAnomalyScore(z ZScores) float64 {
	return positive(z.ErrorRate)*2.0 + positive(z.P99LatencyMs)*1.5 + absf(z.RequestCount)*1.0
}

func positive(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Classify labels an observation and returns the smart-score modifier that
// label contributes. profile is nil when no baseline exists at all for the
// edge, distinct from a profile with fewer than MinSamples observations.
func Classify(profile *EdgeProfile, e graph.Edge) (AnomalyLabel, int) {
	if profile == nil {
		return AnomalyNoBaseline, 0
	}
	if profile.SampleCount < MinSamples {
		return AnomalyInsufficient, 0
	}

	score := CalculateAnomalyScore(CalculateZScores(*profile, e))
	switch {
	case score >= 3:
		return AnomalyAnomaly, 20
	case score >= 2:
		return AnomalySuspicious, 10
	default:
		return AnomalyNormal, -20
	}
}
