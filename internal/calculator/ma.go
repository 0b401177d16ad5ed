package calculator

import "math"

// EMA computes the exponential moving average with smoothing 2/(span+1).
// The recursion is seeded with the first value (no bias adjustment), so the
// result is aligned to the input and has no warmup gap.
func EMA(series []float64, span int) []float64 {
	if len(series) == 0 {
		return nil
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(series))
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RollingMean returns the trailing mean over window points, aligned to the
// input. Indices before window-1 are NaN.
func RollingMean(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i := range series {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		// Summed per window so the result does not drift over long series.
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += series[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Last returns the final element of a series, or NaN when it is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
