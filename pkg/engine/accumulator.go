package engine

import "math"

// axisAccumulator converts a stream of continuous deltas on one axis into
// discrete scroll units, carrying sub-threshold motion over between calls so
// repeated small moves are never lost.
type axisAccumulator struct {
	threshold int
	total     float64
}

// Add folds delta into the running total and returns the number of whole
// scroll units now covered (sign preserved, truncated toward zero), or 0 if
// the total is still below the threshold. The consumed distance is subtracted
// from the total, so after any call |total| < threshold.
func (a *axisAccumulator) Add(delta float64) int {
	a.total += delta
	if math.Abs(a.total) < float64(a.threshold) {
		return 0
	}
	units := int(a.total / float64(a.threshold))
	a.total -= float64(units * a.threshold)
	return units
}

// Reset drops any accumulated motion.
func (a *axisAccumulator) Reset() { a.total = 0 }
