package calculator

import (
	"math"

	"github.com/proverbian/trade-score/internal/model"
)

// DefaultVolatilityWindow is the bar count of the high-low range average.
const DefaultVolatilityWindow = 14

// DefaultVolatilityFallback is used for display when too few bars exist.
const DefaultVolatilityFallback = 0.001

// HighLowRanges returns high-low per bar.
func HighLowRanges(bars []model.OHLCV) []float64 {
	ranges := make([]float64, len(bars))
	for i, b := range bars {
		ranges[i] = b.High - b.Low
	}
	return ranges
}

// VolatilityProxy returns the rolling mean of (high - low) at the most recent
// bar. It is NaN when fewer than window bars are available.
func VolatilityProxy(bars []model.OHLCV, window int) float64 {
	return Last(RollingMean(HighLowRanges(bars), window))
}

// VolatilityProxyOr is VolatilityProxy with fallback substituted for NaN.
func VolatilityProxyOr(bars []model.OHLCV, window int, fallback float64) float64 {
	v := VolatilityProxy(bars, window)
	if math.IsNaN(v) {
		return fallback
	}
	return v
}
