// Package ml holds the pipeline's learned state: rolling per-edge
// baselines, anomaly classification, pattern recognition across a batch,
// and the feedback/whitelist memory that together feed the smart scorer.
package ml

import (
	"math"
	"time"

	"github.com/wisbric/meshdrift/pkg/graph"
)

// DefaultWindowSize is W from spec §4.6: the rolling window of snapshots a
// baseline is built or updated over.
const DefaultWindowSize = 24

// MinSamples is the minimum number of observations required before a
// baseline yields statistics instead of "insufficient data".
const MinSamples = 3

// EdgeProfile is the rolling mean/std baseline for one (source, destination)
// edge over at most WindowSize snapshots.
type EdgeProfile struct {
	Source      string
	Destination string

	MeanRequestCount float64
	StdRequestCount  float64
	MeanErrorRate    float64
	StdErrorRate     float64
	MeanP99LatencyMs float64
	StdP99LatencyMs  float64

	SampleCount int
	LastUpdated time.Time
}

// BuildBaseline computes an EdgeProfile for edgeKey from up to the last
// windowSize snapshots (oldest first). Returns ok=false if fewer than
// MinSamples observations of the edge exist in the window.
func BuildBaseline(snapshots []graph.Snapshot, key graph.EdgeKey, windowSize int, now time.Time) (EdgeProfile, bool) {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if len(snapshots) > windowSize {
		snapshots = snapshots[len(snapshots)-windowSize:]
	}

	var requestCounts, errorRates, p99s []float64
	for _, snap := range snapshots {
		if e, ok := snap.Edges[key]; ok {
			requestCounts = append(requestCounts, float64(e.RequestCount))
			errorRates = append(errorRates, e.ErrorRate())
			p99s = append(p99s, e.P99LatencyMs)
		}
	}

	if len(requestCounts) < MinSamples {
		return EdgeProfile{}, false
	}

	reqMean, reqStd := meanStd(requestCounts)
	errMean, errStd := meanStd(errorRates)
	latMean, latStd := meanStd(p99s)

	return EdgeProfile{
		Source:           key.Source,
		Destination:      key.Destination,
		MeanRequestCount: reqMean,
		StdRequestCount:  reqStd,
		MeanErrorRate:    errMean,
		StdErrorRate:     errStd,
		MeanP99LatencyMs: latMean,
		StdP99LatencyMs:  latStd,
		SampleCount:      len(requestCounts),
		LastUpdated:      now,
	}, true
}

// UpdateBaseline folds one newly observed edge into the profile via
// exponential moving average with alpha = 2/(windowSize+1). A nil current
// profile initializes a fresh one from the single observation.
func UpdateBaseline(current *EdgeProfile, e graph.Edge, windowSize int, now time.Time) EdgeProfile {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	if current == nil {
		return EdgeProfile{
			Source:           e.Source,
			Destination:      e.Destination,
			MeanRequestCount: float64(e.RequestCount),
			MeanErrorRate:    e.ErrorRate(),
			MeanP99LatencyMs: e.P99LatencyMs,
			SampleCount:      1,
			LastUpdated:      now,
		}
	}

	alpha := 2.0 / (float64(windowSize) + 1)

	newReqMean := ema(current.MeanRequestCount, float64(e.RequestCount), alpha)
	newErrMean := ema(current.MeanErrorRate, e.ErrorRate(), alpha)
	newLatMean := ema(current.MeanP99LatencyMs, e.P99LatencyMs, alpha)

	newReqVar := emaVar(current.StdRequestCount, float64(e.RequestCount), newReqMean, alpha)
	newErrVar := emaVar(current.StdErrorRate, e.ErrorRate(), newErrMean, alpha)
	newLatVar := emaVar(current.StdP99LatencyMs, e.P99LatencyMs, newLatMean, alpha)

	sampleCount := current.SampleCount + 1
	if sampleCount > windowSize {
		sampleCount = windowSize
	}

	return EdgeProfile{
		Source:           e.Source,
		Destination:      e.Destination,
		MeanRequestCount: newReqMean,
		StdRequestCount:  math.Sqrt(newReqVar),
		MeanErrorRate:    newErrMean,
		StdErrorRate:     math.Sqrt(newErrVar),
		MeanP99LatencyMs: newLatMean,
		StdP99LatencyMs:  math.Sqrt(newLatVar),
		SampleCount:      sampleCount,
		LastUpdated:      now,
	}
}

func ema(mean, x, alpha float64) float64 {
	return (1-alpha)*mean + alpha*x
}

func emaVar(std, x, newMean, alpha float64) float64 {
	variance := std * std
	return (1-alpha)*variance + alpha*(x-newMean)*(x-newMean)
}

func meanStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	for _, v := range values {
		mean += v
	}
	mean /= n

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	std = math.Sqrt(sumSq / n)
	return mean, std
}
