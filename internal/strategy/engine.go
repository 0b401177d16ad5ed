package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/proverbian/trade-score/internal/calculator"
	"github.com/proverbian/trade-score/internal/model"
)

// ErrNoPairsScored is returned when every configured pair failed to score.
var ErrNoPairsScored = errors.New("no pairs scored")

// Params is the explicit configuration of a scoring run.
type Params struct {
	EMAShort           int
	EMALong            int
	Clamp              float64
	BiasThreshold      float64
	StopLossMultiplier float64
	SwingWindow        int
	ZoneTopN           int
	ZoneOrder          calculator.ZoneOrder
	MinBars            int
	VolatilityWindow   int
	VolatilityFallback float64
	MarketStopMult     float64
	MarketTargetMult   float64
	Weights            map[string]float64
}

const (
	ProfileSwing = "swing"
	ProfileScalp = "scalp"
)

// Profiles are the named policy presets. Swing uses the dead-zone threshold
// and the wider stop; scalp uses the zero threshold, tighter clamp and stop.
var Profiles = map[string]Params{
	ProfileSwing: {
		EMAShort: 5, EMALong: 20,
		Clamp: 3.0, BiasThreshold: 0.3, StopLossMultiplier: 1.5,
		SwingWindow: 2, ZoneTopN: calculator.DefaultZoneTopN, ZoneOrder: calculator.ZoneOrderPrice,
		MinBars: 50, VolatilityWindow: calculator.DefaultVolatilityWindow,
		VolatilityFallback: calculator.DefaultVolatilityFallback,
		MarketStopMult:     1.0, MarketTargetMult: 1.5,
	},
	ProfileScalp: {
		EMAShort: 5, EMALong: 20,
		Clamp: 1.5, BiasThreshold: 0, StopLossMultiplier: 1.0,
		SwingWindow: 2, ZoneTopN: calculator.DefaultZoneTopN, ZoneOrder: calculator.ZoneOrderPrice,
		MinBars: 50, VolatilityWindow: calculator.DefaultVolatilityWindow,
		VolatilityFallback: calculator.DefaultVolatilityFallback,
		MarketStopMult:     1.0, MarketTargetMult: 1.5,
	},
}

// DefaultParams returns the swing profile.
func DefaultParams() Params {
	return Profiles[ProfileSwing]
}

// WeightedScore sums a pair's timeframe scores with the configured weights.
// Weights are applied as given; timeframes without a weight do not count.
func WeightedScore(scores map[string]float64, weights map[string]float64) float64 {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		total += scores[k] * weights[k]
	}
	return total
}

// DetermineBias maps a weighted score to a bias. With threshold 0 any positive
// score is BUY and any negative score is SELL.
func DetermineBias(total, threshold float64) model.Bias {
	switch {
	case total > threshold:
		return model.BiasBuy
	case total < -threshold:
		return model.BiasSell
	default:
		return model.BiasNeutral
	}
}

// Input holds the fetched windows for one run.
type Input struct {
	Pairs      []model.Pair
	Timeframes []string
	// Momentum maps timeframe -> pair -> momentum window.
	Momentum map[string]map[model.Pair][]model.OHLCV
	// LevelBars maps pair -> level window.
	LevelBars map[model.Pair][]model.OHLCV
	// Failures already observed while fetching.
	Failures []model.Failure
}

// Evaluate turns fetched windows into a scorecard. A pair that cannot be
// scored on every timeframe is left out of the run and reported in Failures;
// a pair without a level window keeps its bias but gets no LevelSet.
func Evaluate(in *Input, p Params) (*model.Scorecard, error) {
	sc := &model.Scorecard{
		Timeframes:  in.Timeframes,
		Strengths:   make(map[string]map[string]int, len(in.Timeframes)),
		Biases:      make(map[model.Pair]model.Bias, len(in.Pairs)),
		TotalScores: make(map[model.Pair]float64, len(in.Pairs)),
		Levels:      make(map[model.Pair]model.LevelSet, len(in.Pairs)),
		Failures:    append([]model.Failure(nil), in.Failures...),
	}

	reported := make(map[model.Pair]bool, len(in.Failures))
	for _, f := range in.Failures {
		reported[f.Pair] = true
	}

	// Step a: momentum per pair per timeframe
	perPair := make(map[model.Pair]map[string]float64, len(in.Pairs))
	for _, pair := range in.Pairs {
		scores := make(map[string]float64, len(in.Timeframes))
		ok := true
		for _, tf := range in.Timeframes {
			bars, found := in.Momentum[tf][pair]
			if !found {
				ok = false
				if !reported[pair] {
					sc.Failures = append(sc.Failures, model.Failure{Pair: pair, Timeframe: tf, Reason: "no momentum window"})
					reported[pair] = true
				}
				continue
			}
			s, err := ScorePair(bars, p)
			if err != nil {
				ok = false
				sc.Failures = append(sc.Failures, model.Failure{Pair: pair, Timeframe: tf, Reason: err.Error()})
				reported[pair] = true
				continue
			}
			scores[tf] = s
		}
		if ok {
			perPair[pair] = scores
			sc.Pairs = append(sc.Pairs, pair)
		}
	}
	if len(sc.Pairs) == 0 && len(in.Pairs) > 0 {
		return sc, fmt.Errorf("%w: %d failures", ErrNoPairsScored, len(sc.Failures))
	}

	// Step b: per-timeframe currency strength
	for _, tf := range in.Timeframes {
		tfScores := make(map[model.Pair]float64, len(sc.Pairs))
		for _, pair := range sc.Pairs {
			tfScores[pair] = perPair[pair][tf]
		}
		sc.Strengths[tf] = NormalizeStrength(BuildCurrencyStrength(tfScores))
	}

	// Step c: bias and levels per pair
	for _, pair := range sc.Pairs {
		total := WeightedScore(perPair[pair], p.Weights)
		bias := DetermineBias(total, p.BiasThreshold)
		sc.TotalScores[pair] = total
		sc.Biases[pair] = bias

		bars := in.LevelBars[pair]
		if len(bars) == 0 {
			continue
		}
		sc.Levels[pair] = LevelsFor(bars, bias, p)
	}

	return sc, nil
}

// LevelsFor runs swing detection, zone selection and level calculation over a
// level window.
func LevelsFor(bars []model.OHLCV, bias model.Bias, p Params) model.LevelSet {
	highs, lows := calculator.FindSwingPoints(bars, p.SwingWindow)
	zones := calculator.PickZones(highs, lows, p.ZoneTopN, p.ZoneOrder)
	price := bars[len(bars)-1].Close
	vol := calculator.VolatilityProxyOr(bars, p.VolatilityWindow, p.VolatilityFallback)

	ls := CalculateLevels(LevelInput{
		CurrentPrice: price,
		Volatility:   vol,
		Zones:        zones,
		Bias:         bias,
	}, p.StopLossMultiplier)
	ls.Market = CalculateMarketLevels(price, vol, p.MarketStopMult, p.MarketTargetMult)
	return ls
}
