package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/proverbian/trade-score/internal/calculator"
	"github.com/proverbian/trade-score/internal/model"
)

// ErrInsufficientData is returned when a window holds fewer bars than required.
var ErrInsufficientData = errors.New("insufficient data")

// MomentumScore measures the gap between a short and a long EMA of closes in
// units of the mean high-low range over the last window bars, clamped to
// [-clamp, clamp]. A zero or undefined range yields 0.
func MomentumScore(bars []model.OHLCV, short, long, window int, clamp float64) float64 {
	if len(bars) == 0 {
		return 0
	}
	closes := model.Closes(bars)
	diff := calculator.Last(calculator.EMA(closes, short)) - calculator.Last(calculator.EMA(closes, long))

	rng := calculator.VolatilityProxy(bars, window)
	if rng == 0 || math.IsNaN(rng) {
		return 0
	}
	score := diff / rng
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-clamp, math.Min(clamp, score))
}

// ScorePair scores one momentum window, rejecting windows shorter than
// p.MinBars.
func ScorePair(bars []model.OHLCV, p Params) (float64, error) {
	if len(bars) < p.MinBars {
		return 0, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(bars), p.MinBars)
	}
	return MomentumScore(bars, p.EMAShort, p.EMALong, p.VolatilityWindow, p.Clamp), nil
}
