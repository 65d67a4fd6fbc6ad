package verify

import "math"

// NormalizeConfidence reconciles the two confidence scales found in
// storage into the canonical [0,1] fraction. Values above 1 are
// assumed to already be 0-100 percentages: they are clamped to 100 and
// divided down. Values in [0,1] pass through unchanged, so the
// function is idempotent. A stored value of exactly 1 is read as the
// fraction 1.0 (100%); the stored scale is not self-describing, so
// that boundary is inherently ambiguous and this keeps the historical
// reading. Unusable values (NaN, infinities) normalize to 0.5, and
// negatives clamp to 0 so the presentation invariant holds.
func NormalizeConfidence(stored float64) float64 {
	if math.IsNaN(stored) || math.IsInf(stored, 0) {
		return 0.5
	}
	if stored > 1 {
		return math.Min(100, stored) / 100
	}
	if stored < 0 {
		return 0
	}
	return stored
}

// ConfidencePercent converts a canonical fraction to the integer
// percentage shown to callers.
func ConfidencePercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}
