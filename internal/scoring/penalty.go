// Package scoring implements the threshold penalty model: every module score
// is a weighted composition of normalized [0,1] penalties over
// module-specific signals, mapped to a 0-100 score.
package scoring

import "math"

// MetricThreshold defines a monotone band for a metric. Good <= Bad is a
// configuration invariant; violated bands are a bug, not a runtime state.
type MetricThreshold struct {
	Good float64
	Bad  float64
}

// Penalty converts a metric value and a (good, bad) band into a normalized
// penalty: 0 at or below good, 1 at or above bad, linear in between.
// Pure and deterministic.
func Penalty(value, good, bad float64) float64 {
	if value <= good {
		return 0
	}
	if value >= bad {
		return 1
	}
	return clampUnit((value - good) / (bad - good))
}

// Penalty applies the band to a value.
func (t MetricThreshold) Penalty(value float64) float64 {
	return Penalty(value, t.Good, t.Bad)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// scoreFromPenalty maps a clamped total penalty to the 0-100 scale.
func scoreFromPenalty(total float64) int {
	return int(math.Round(100 * (1 - clampUnit(total))))
}
