package ml

import "testing"

func TestClassify_NilProfileIsNoBaseline(t *testing.T) {
	label, mod := Classify(nil, edge(t, "a", "b", 100, 1, 10, 20))
	if label != AnomalyNoBaseline || mod != 0 {
		t.Errorf("got (%v,%d), want (no_baseline,0)", label, mod)
	}
}

func TestClassify_InsufficientSamples(t *testing.T) {
	profile := &EdgeProfile{SampleCount: 2, MeanErrorRate: 0.01, StdErrorRate: 0.001}
	label, mod := Classify(profile, edge(t, "a", "b", 100, 1, 10, 20))
	if label != AnomalyInsufficient || mod != 0 {
		t.Errorf("got (%v,%d), want (insufficient_data,0)", label, mod)
	}
}

func TestClassify_NormalWhenCloseToMean(t *testing.T) {
	profile := &EdgeProfile{
		SampleCount:      10,
		MeanRequestCount: 100, StdRequestCount: 5,
		MeanErrorRate: 0.01, StdErrorRate: 0.005,
		MeanP99LatencyMs: 20, StdP99LatencyMs: 2,
	}
	label, mod := Classify(profile, edge(t, "a", "b", 100, 1, 10, 20))
	if label != AnomalyNormal || mod != -20 {
		t.Errorf("got (%v,%d), want (normal,-20)", label, mod)
	}
}

func TestClassify_AnomalyWhenFarFromMean(t *testing.T) {
	profile := &EdgeProfile{
		SampleCount:      10,
		MeanRequestCount: 100, StdRequestCount: 5,
		MeanErrorRate: 0.01, StdErrorRate: 0.005,
		MeanP99LatencyMs: 20, StdP99LatencyMs: 2,
	}
	// error rate 0.5 vs mean 0.01 std 0.005 -> z huge -> anomaly score >> 3
	label, mod := Classify(profile, edge(t, "a", "b", 100, 50, 10, 20))
	if label != AnomalyAnomaly || mod != 20 {
		t.Errorf("got (%v,%d), want (anomaly,20)", label, mod)
	}
}

func TestCalculateZScores_ZeroStdYieldsZero(t *testing.T) {
	profile := EdgeProfile{MeanRequestCount: 100, StdRequestCount: 0}
	z := CalculateZScores(profile, edge(t, "a", "b", 500, 0, 10, 20))
	if z.RequestCount != 0 {
		t.Errorf("z.RequestCount = %v, want 0 when std is 0", z.RequestCount)
	}
}
