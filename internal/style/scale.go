// Package style maps earthquake magnitudes to marker colors and radii.
package style

import "math"

// Quantize partitions a continuous domain into equal-width buckets, one per
// output value. Inputs outside the domain fall into the nearest end bucket.
type Quantize struct {
	thresholds []float64
	values     []string
}

// NewQuantize builds a quantize scale over [lo, hi] with the given outputs.
func NewQuantize(lo, hi float64, values []string) Quantize {
	n := len(values)
	thresholds := make([]float64, 0, max(n-1, 0))
	for i := 1; i < n; i++ {
		thresholds = append(thresholds, lo+float64(i)*(hi-lo)/float64(n))
	}

	return Quantize{
		thresholds: thresholds,
		values:     append([]string(nil), values...),
	}
}

// At returns the output for x. NaN maps to the first bucket.
func (q Quantize) At(x float64) string {
	if len(q.values) == 0 {
		return ""
	}
	if math.IsNaN(x) {
		return q.values[0]
	}

	// number of thresholds <= x
	i := 0
	for i < len(q.thresholds) && q.thresholds[i] <= x {
		i++
	}

	return q.values[i]
}

// Thresholds returns the inner bucket boundaries.
func (q Quantize) Thresholds() []float64 {
	return append([]float64(nil), q.thresholds...)
}

// Values returns the bucket outputs in order.
func (q Quantize) Values() []string {
	return append([]string(nil), q.values...)
}

// Linear maps [d0, d1] proportionally onto [r0, r1], clamped at both ends.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear builds a clamped linear scale.
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// At returns the interpolated value for x. NaN maps to the range start.
func (l Linear) At(x float64) float64 {
	if math.IsNaN(x) || l.d1 == l.d0 {
		return l.r0
	}

	t := (x - l.d0) / (l.d1 - l.d0)
	t = math.Max(0, math.Min(1, t))

	return l.r0 + t*(l.r1-l.r0)
}
