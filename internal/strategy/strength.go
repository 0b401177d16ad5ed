package strategy

import (
	"math"
	"sort"

	"github.com/proverbian/trade-score/internal/model"
)

// StrengthLimit bounds normalized strengths to [-StrengthLimit, StrengthLimit].
const StrengthLimit = 6

// BuildCurrencyStrength nets pair scores per currency: each pair adds its
// score to the base currency and subtracts it from the quote currency.
func BuildCurrencyStrength(pairScores map[model.Pair]float64) map[string]float64 {
	pairs := make([]model.Pair, 0, len(pairScores))
	for p := range pairScores {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i] < pairs[j] })

	strength := make(map[string]float64, len(pairScores)*2)
	for _, pair := range pairs {
		score := pairScores[pair]
		strength[pair.Base()] += score
		strength[pair.Quote()] -= score
	}
	return strength
}

// NormalizeStrength z-scores raw strengths within one timeframe and maps them
// to integers in [-6, 6] via round(z*2), half to even.
func NormalizeStrength(strength map[string]float64) map[string]int {
	out := make(map[string]int, len(strength))
	if len(strength) == 0 {
		return out
	}

	// Fixed key order keeps the float sums identical between runs.
	keys := make([]string, 0, len(strength))
	for k := range strength {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	allEqual := true
	var sum float64
	for _, k := range keys {
		if strength[k] != strength[keys[0]] {
			allEqual = false
		}
		sum += strength[k]
	}
	n := float64(len(keys))
	mean := sum / n

	var sq float64
	for _, k := range keys {
		d := strength[k] - mean
		sq += d * d
	}
	std := math.Sqrt(sq / n)

	for _, k := range keys {
		if allEqual || std == 0 {
			out[k] = 0
			continue
		}
		z := math.RoundToEven((strength[k] - mean) / std * 2)
		out[k] = int(math.Max(-StrengthLimit, math.Min(StrengthLimit, z)))
	}
	return out
}
