package verify

import (
	"math"
	"testing"
)

func TestNormalizeConfidence(t *testing.T) {
	cases := []struct {
		name   string
		stored float64
		want   float64
	}{
		{"fraction passes through", 0.73, 0.73},
		{"zero", 0, 0},
		{"legacy percentage", 85, 0.85},
		{"legacy out of range clamps", 150, 1.0},
		{"exactly one is full confidence", 1.0, 1.0},
		{"just above one is legacy scale", 1.5, 0.015},
		{"negative clamps to zero", -3, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeConfidence(tc.stored)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("NormalizeConfidence(%v) = %v, want %v", tc.stored, got, tc.want)
			}
		})
	}
}

func TestNormalizeConfidence_Idempotent(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.5, 0.99, 1.0, 37, 150} {
		once := NormalizeConfidence(v)
		twice := NormalizeConfidence(once)
		if once != twice {
			t.Errorf("Normalization not idempotent for %v: %v then %v", v, once, twice)
		}
	}
}

func TestNormalizeConfidence_Unusable(t *testing.T) {
	if got := NormalizeConfidence(math.NaN()); got != 0.5 {
		t.Errorf("NaN: expected 0.5, got %v", got)
	}
	if got := NormalizeConfidence(math.Inf(1)); got != 0.5 {
		t.Errorf("+Inf: expected 0.5, got %v", got)
	}
}

func TestConfidencePercent(t *testing.T) {
	cases := []struct {
		fraction float64
		want     int
	}{
		{0.73, 73},
		{0.99, 99},
		{1.0, 100},
		{0, 0},
		{0.005, 1},
	}
	for _, tc := range cases {
		if got := ConfidencePercent(tc.fraction); got != tc.want {
			t.Errorf("ConfidencePercent(%v) = %d, want %d", tc.fraction, got, tc.want)
		}
	}
}

func TestLegacyScaleEndToEnd(t *testing.T) {
	// A stored 150 must present as exactly 100.
	if got := ConfidencePercent(NormalizeConfidence(150)); got != 100 {
		t.Errorf("Expected 100, got %d", got)
	}
	// A stored 0.73 must present as exactly 73.
	if got := ConfidencePercent(NormalizeConfidence(0.73)); got != 73 {
		t.Errorf("Expected 73, got %d", got)
	}
}
